package constants

import "time"

// RiotAPIConfig 는 패키지 변수다.
var RiotAPIConfig = struct {
	RequestsPerSecond  int           // 토큰 버킷 리필 속도 (개발키 20 req/s)
	Burst              int           // 버킷 용량
	Timeout            time.Duration
	BatchRequestDelay  time.Duration // 배치 상세 조회 시 요청 간 최소 간격
	DefaultRetryAfter  time.Duration // Retry-After 헤더가 없을 때의 429 대기 시간
	DefaultMatchCount  int
	MaxMatchCount      int
}{
	RequestsPerSecond:  20,
	Burst:              20,
	Timeout:            15 * time.Second,
	BatchRequestDelay:  60 * time.Millisecond, // 지속 ~16 req/s
	DefaultRetryAfter:  5 * time.Second,
	DefaultMatchCount:  20,
	MaxMatchCount:      200,
}

// RetryConfig 는 패키지 변수다.
var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
}{
	MaxAttempts: 3,                      // 최초 시도 외 재시도 횟수
	BaseDelay:   1 * time.Second,        // 지수 백오프: 1s, 2s, 4s
}

// CacheTTL 는 패키지 변수다.
var CacheTTL = struct {
	APIResponse time.Duration
}{
	APIResponse: 5 * time.Minute, // 프로필/랭크 같은 느리게 변하는 조회의 허용 staleness
}

// ValkeyConfig 는 패키지 변수다.
var ValkeyConfig = struct {
	ReadyTimeout      time.Duration
	ConnWriteTimeout  time.Duration
	DialTimeout       time.Duration
	BlockingPoolSize  int
	PipelineMultiplex int
}{
	ReadyTimeout:      5 * time.Second,
	ConnWriteTimeout:  10 * time.Second,
	DialTimeout:       5 * time.Second,
	BlockingPoolSize:  100,
	PipelineMultiplex: 4,
}

// DatabaseConfig 는 패키지 변수다.
var DatabaseConfig = struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}{
	MaxOpenConns:    20,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	PingTimeout:     5 * time.Second,
}

// DatabaseDefaults 는 패키지 변수다.
var DatabaseDefaults = struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}{
	Host:     "localhost",
	Port:     5432,
	User:     "tftcoach",
	Password: "tftcoach",
	Database: "tftcoach",
}

// SyncConfig 는 패키지 변수다.
var SyncConfig = struct {
	Interval          time.Duration // 주기 싱크 간격
	RunBudget         time.Duration // 한 번의 cron 호출에 허용되는 벽시계 상한
	MatchesPerPlayer  int
	LadderMaxPlayers  int
	LadderPlatforms   []string
	SaveBatchSize     int
}{
	Interval:          6 * time.Hour,
	RunBudget:         5 * time.Minute,
	MatchesPerPlayer:  10,
	LadderMaxPlayers:  30,
	LadderPlatforms:   []string{"euw1", "kr", "na1", "tr1"},
	SaveBatchSize:     10,
}

// AggregationConfig 는 패키지 변수다.
var AggregationConfig = struct {
	WindowHours        int
	MinGames           int
	BackfillBatchSize  int // participants comp_hash 일괄 갱신 단위
	SuggestedItemCount int
	SuggestedAugCount  int
	MinAugmentSeen     int
}{
	WindowHours:        72,
	MinGames:           3,
	BackfillBatchSize:  100,
	SuggestedItemCount: 3,
	SuggestedAugCount:  5,
	MinAugmentSeen:     2,
}

// CoachingConfig 는 패키지 변수다.
var CoachingConfig = struct {
	DefaultWindow      int
	MinLeaderboardSeen int
	LeaderboardSize    int
}{
	DefaultWindow:      20,
	MinLeaderboardSeen: 2,
	LeaderboardSize:    10,
}

// ServerTimeout 는 HTTP 서버 타임아웃이다.
var ServerTimeout = struct {
	ReadHeader time.Duration
	Idle       time.Duration
}{
	ReadHeader: 5 * time.Second,
	Idle:       60 * time.Second,
}

// ServerConfig 는 서버 기본 설정이다.
var ServerConfig = struct {
	TrustedProxies []string
}{
	TrustedProxies: []string{"127.0.0.1", "::1"},
}

// CORSConfig 는 CORS 기본 설정이다.
var CORSConfig = struct {
	AllowMethods []string
	AllowHeaders []string
}{
	AllowMethods: []string{"GET", "POST", "OPTIONS"},
	AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Cron-Secret"},
}

// AppTimeout 는 패키지 변수다.
var AppTimeout = struct {
	Build    time.Duration
	Shutdown time.Duration
}{
	Build:    30 * time.Second,
	Shutdown: 10 * time.Second,
}
