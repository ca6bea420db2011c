package domain

import "time"

// Tier 는 조합 등급이다. 점수 백분위로 산정한다.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// SuggestedItem: 조합별 유닛-아이템 추천. Rate는 조합 경기 수 대비 등장 비율이다.
type SuggestedItem struct {
	Unit  string  `json:"unit,omitempty"`
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Rate  float64 `json:"rate,omitempty"`
}

// SuggestedAugment: 조합별 추천 증강과 성과 지표
type SuggestedAugment struct {
	Name         string  `json:"name"`
	Count        int     `json:"count"`
	AvgPlacement float64 `json:"avg_placement"`
	Top4Rate     float64 `json:"top4_rate"`
}

// CompositionStats: 집계 윈도우 내 한 조합의 통계. comp_hash가 키다.
type CompositionStats struct {
	CompHash     string  `json:"comp_hash"`
	Name         string  `json:"name"`
	SetNumber    int     `json:"set_number"`
	Patch        string  `json:"patch"`
	TotalGames   int     `json:"total_games"`
	AvgPlacement float64 `json:"avg_placement"`
	Top4Rate     float64 `json:"top4_rate"` // percent
	WinRate      float64 `json:"win_rate"`  // percent
	PickRate     float64 `json:"pick_rate"` // percent of window games
	Score        float64 `json:"score"`
	Tier         Tier    `json:"tier"`
	MetaTags     []string `json:"meta_tags"`
	AvgLevel     float64  `json:"avg_level"`

	CoreUnits         []Unit             `json:"core_units"`
	SuggestedItems    []SuggestedItem    `json:"suggested_items"`
	SuggestedAugments []SuggestedAugment `json:"suggested_augments"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// UnitStat: 스냅샷 내 유닛별 통계
type UnitStat struct {
	Name         string  `json:"name"`
	Games        int     `json:"games"`
	AvgPlacement float64 `json:"avg_placement"`
	PickRate     float64 `json:"pick_rate"` // percent of lobbies
}

// SnapshotComp: 스냅샷에 포함되는 조합 요약 (C 등급 제외)
type SnapshotComp struct {
	CompHash     string   `json:"comp_hash"`
	Name         string   `json:"name"`
	Tier         Tier     `json:"tier"`
	Score        float64  `json:"score"`
	TotalGames   int      `json:"total_games"`
	AvgPlacement float64  `json:"avg_placement"`
	Top4Rate     float64  `json:"top4_rate"`
	WinRate      float64  `json:"win_rate"`
	MetaTags     []string `json:"meta_tags"`
}

// MetaSnapshot: 하루 단위 메타 요약. (date, set, patch) 유니크.
type MetaSnapshot struct {
	Date       string         `json:"date"` // YYYY-MM-DD
	SetNumber  int            `json:"set_number"`
	Patch      string         `json:"patch"`
	TotalGames int            `json:"total_games"`
	Comps      []SnapshotComp `json:"comps"`
	UnitStats  []UnitStat     `json:"unit_stats"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
}
