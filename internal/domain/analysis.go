package domain

// ErrorPatternType 상수 목록
const (
	PatternEarlyElimination = "early_elimination"
	PatternGoldWaste        = "gold_waste"
	PatternTiltStreak       = "tilt_streak"
	PatternLowSynergy       = "low_synergy"
)

// PlacementBucket: 순위 분포 히스토그램의 칸 하나
type PlacementBucket struct {
	Placement int `json:"placement"` // 1~8
	Count     int `json:"count"`
}

// Summary: 분석 윈도우 요약 통계
type Summary struct {
	Games        int     `json:"games"`
	AvgPlacement float64 `json:"avg_placement"`
	Top4Rate     float64 `json:"top4_rate"` // percent
	WinRate      float64 `json:"win_rate"`  // percent
	AvgLevel     float64 `json:"avg_level"`
	AvgGoldLeft  float64 `json:"avg_gold_left"`
	AvgLastRound float64 `json:"avg_last_round"`
}

// Scores: 행동 점수 평균 (0~100)
type Scores struct {
	Tempo   float64 `json:"tempo"`
	Econ    float64 `json:"econ"`
	Synergy float64 `json:"synergy"`
}

// AugmentStat: 플레이어가 선택한 증강별 성과
type AugmentStat struct {
	Name         string  `json:"name"`
	Count        int     `json:"count"`
	AvgPlacement float64 `json:"avg_placement"`
	Top4Rate     float64 `json:"top4_rate"`
}

// PlayedTrait: 플레이어가 자주 활성화한 시너지
type PlayedTrait struct {
	Name         string  `json:"name"`
	Count        int     `json:"count"`
	AvgPlacement float64 `json:"avg_placement"`
}

// ErrorPattern: 감지된 반복 실수 패턴
type ErrorPattern struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // high | medium | low
	Message  string `json:"message"`
	Count    int    `json:"count"`
}

// CoachCard: 보고서에 노출되는 코칭 카드. 항상 3장이다.
type CoachCard struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Priority int    `json:"priority"` // 1이 최우선
}

// CompPerformance: 플레이어의 조합별 성과
type CompPerformance struct {
	CompHash     string  `json:"comp_hash"`
	Name         string  `json:"name"`
	Games        int     `json:"games"`
	AvgPlacement float64 `json:"avg_placement"`
	Top4Rate     float64 `json:"top4_rate"`
}

// PlayerAnalysis: 코칭 분석 결과 전체
type PlayerAnalysis struct {
	PUUID          string            `json:"puuid"`
	Window         int               `json:"window"` // 분석에 사용한 경기 수
	Summary        Summary           `json:"summary"`
	Scores         Scores            `json:"scores"`
	Placements     []PlacementBucket `json:"placements"`
	RecentForm     []int             `json:"recent_form"` // 최신순 순위 목록
	Augments       []AugmentStat     `json:"augments"`
	Traits         []PlayedTrait     `json:"traits"`
	Comps          []CompPerformance `json:"comps"`
	ErrorPatterns  []ErrorPattern    `json:"error_patterns"`
	CoachCards     []CoachCard       `json:"coach_cards"`
}
