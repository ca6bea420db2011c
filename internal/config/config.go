package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/util"
)

// Config: TFT 코치 서비스 전체 동작에 필요한 설정을 담는 구조체
type Config struct {
	Riot     RiotConfig
	Sync     SyncConfig
	Server   ServerConfig
	Valkey   ValkeyConfig
	Postgres PostgresConfig
	Logging  LoggingConfig
	Version  string
}

// RiotConfig: Riot API 접근 설정
type RiotConfig struct {
	APIKey   string
	Platform string // 기본 플랫폼 라우팅 (euw1, kr, na1 ...)
}

// SyncConfig: 수집 파이프라인 동작 설정
type SyncConfig struct {
	Interval         time.Duration
	MatchesPerPlayer int
	LadderMaxPlayers int
	LadderPlatforms  []string
	Enabled          bool
}

// ServerConfig: HTTP API 서버 설정
type ServerConfig struct {
	Port           int
	CronSecretHash string // bcrypt 해시
	AllowedOrigins []string
}

// ValkeyConfig: Valkey 캐시 연결 설정
type ValkeyConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// PostgresConfig 는 PostgreSQL 연결 설정이다.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// LoggingConfig: 로그 레벨 및 파일 로테이션 설정
type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load: .env와 환경변수에서 설정을 읽어 검증한 뒤 돌려준다.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Riot: RiotConfig{
			APIKey:   util.TrimSpace(getEnv("RIOT_API_KEY", "")),
			Platform: getEnv("RIOT_PLATFORM", "euw1"),
		},
		Sync: SyncConfig{
			Interval: time.Duration(
				getEnvInt("SYNC_INTERVAL_MINUTES", int(constants.SyncConfig.Interval.Minutes())),
			) * time.Minute,
			MatchesPerPlayer: getEnvInt("SYNC_MATCHES_PER_PLAYER", constants.SyncConfig.MatchesPerPlayer),
			LadderMaxPlayers: getEnvInt("SYNC_LADDER_MAX_PLAYERS", constants.SyncConfig.LadderMaxPlayers),
			LadderPlatforms: parseCommaSeparated(
				getEnv("SYNC_LADDER_PLATFORMS", strings.Join(constants.SyncConfig.LadderPlatforms, ",")),
			),
			Enabled: getEnvBool("SYNC_ENABLED", true),
		},
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 30011),
			CronSecretHash: getEnv("CRON_SECRET_HASH", ""),
			AllowedOrigins: parseCommaSeparated(getEnv("CORS_ALLOWED_ORIGINS", "")),
		},
		Valkey: ValkeyConfig{
			Host:     getEnv("CACHE_HOST", "localhost"),
			Port:     getEnvInt("CACHE_PORT", 6379),
			Password: getEnv("CACHE_PASSWORD", ""),
			DB:       getEnvInt("CACHE_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", constants.DatabaseDefaults.Host),
			Port:     getEnvInt("POSTGRES_PORT", constants.DatabaseDefaults.Port),
			User:     getEnv("POSTGRES_USER", constants.DatabaseDefaults.User),
			Password: getEnv("POSTGRES_PASSWORD", constants.DatabaseDefaults.Password),
			Database: getEnv("POSTGRES_DB", constants.DatabaseDefaults.Database),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Dir:        getEnv("LOG_DIR", "logs"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Version: util.TrimSpace(getEnv("APP_VERSION", "0.3.0-go")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate: 필수 설정값이 누락되지 않았는지 검증한다.
func (c *Config) Validate() error {
	if c.Riot.APIKey == "" {
		return fmt.Errorf("RIOT_API_KEY is required")
	}
	if c.Server.Port == 0 {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Server.CronSecretHash == "" {
		return fmt.Errorf("CRON_SECRET_HASH is required for cron endpoint security")
	}
	if c.Sync.MatchesPerPlayer <= 0 || c.Sync.MatchesPerPlayer > constants.RiotAPIConfig.MaxMatchCount {
		return fmt.Errorf("SYNC_MATCHES_PER_PLAYER must be between 1 and %d", constants.RiotAPIConfig.MaxMatchCount)
	}
	if len(c.Sync.LadderPlatforms) == 0 {
		return fmt.Errorf("SYNC_LADDER_PLATFORMS is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := util.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
