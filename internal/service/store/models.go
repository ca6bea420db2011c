package store

import (
	"time"

	"gorm.io/datatypes"
)

// MatchModel: matches 테이블과 매핑되는 GORM 모델입니다.
type MatchModel struct {
	MatchID      string    `gorm:"primaryKey;column:match_id"`
	GameDatetime time.Time `gorm:"column:game_datetime;index"`
	GameLength   int       `gorm:"column:game_length"`
	GameVersion  string    `gorm:"column:game_version"`
	QueueID      int       `gorm:"column:queue_id"`
	SetNumber    int       `gorm:"column:set_number"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName: "matches"
func (MatchModel) TableName() string {
	return "matches"
}

// ParticipantModel: participants 테이블과 매핑되는 GORM 모델입니다.
// (match_id, puuid)가 유니크이며, comp_hash는 집계 후 백필된다.
type ParticipantModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement;column:id"`
	MatchID   string `gorm:"column:match_id;uniqueIndex:idx_participants_match_puuid;index"`
	PUUID     string `gorm:"column:puuid;uniqueIndex:idx_participants_match_puuid;index"`
	Placement int    `gorm:"column:placement"`
	Level     int    `gorm:"column:level"`
	GoldLeft  int    `gorm:"column:gold_left"`
	LastRound int    `gorm:"column:last_round"`

	PlayersEliminated int     `gorm:"column:players_eliminated"`
	DamageToPlayers   int     `gorm:"column:damage_to_players"`
	TimeEliminated    float64 `gorm:"column:time_eliminated"`

	Units    datatypes.JSON `gorm:"column:units;type:jsonb"`
	Traits   datatypes.JSON `gorm:"column:traits;type:jsonb"`
	Augments datatypes.JSON `gorm:"column:augments;type:jsonb"`

	TempoScore   int `gorm:"column:tempo_score"`
	EconScore    int `gorm:"column:econ_score"`
	SynergyScore int `gorm:"column:synergy_score"`

	CompHash  *string   `gorm:"column:comp_hash;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName: "participants"
func (ParticipantModel) TableName() string {
	return "participants"
}

// PlayerModel: players 테이블과 매핑되는 GORM 모델입니다. (추적 대상 플레이어)
type PlayerModel struct {
	PUUID      string     `gorm:"primaryKey;column:puuid"`
	GameName   string     `gorm:"column:game_name"`
	TagLine    string     `gorm:"column:tag_line"`
	Platform   string     `gorm:"column:platform"`
	Tier       string     `gorm:"column:tier"`
	Tracked    bool       `gorm:"column:tracked;index"`
	LastSynced *time.Time `gorm:"column:last_synced"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

// TableName: "players"
func (PlayerModel) TableName() string {
	return "players"
}

// CompStatsModel: comp_aggregation_log 테이블과 매핑되는 GORM 모델입니다.
// comp_hash가 기본 키이며 집계마다 통째로 갱신된다.
type CompStatsModel struct {
	CompHash     string  `gorm:"primaryKey;column:comp_hash"`
	Name         string  `gorm:"column:name"`
	SetNumber    int     `gorm:"column:set_number"`
	Patch        string  `gorm:"column:patch"`
	TotalGames   int     `gorm:"column:total_games"`
	AvgPlacement float64 `gorm:"column:avg_placement"`
	Top4Rate     float64 `gorm:"column:top4_rate"`
	WinRate     float64 `gorm:"column:win_rate"`
	PickRate    float64 `gorm:"column:pick_rate"`
	Score       float64 `gorm:"column:score"`
	Tier        string  `gorm:"column:tier;index"`
	AvgLevel    float64 `gorm:"column:avg_level"`

	MetaTags          datatypes.JSON `gorm:"column:meta_tags;type:jsonb"`
	CoreUnits         datatypes.JSON `gorm:"column:core_units;type:jsonb"`
	SuggestedItems    datatypes.JSON `gorm:"column:suggested_items;type:jsonb"`
	SuggestedAugments datatypes.JSON `gorm:"column:suggested_augments;type:jsonb"`

	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName: "comp_aggregation_log"
func (CompStatsModel) TableName() string {
	return "comp_aggregation_log"
}

// CompMatchModel: comp_matches 브리지 테이블과 매핑되는 GORM 모델입니다.
// 조합과 개별 경기를 잇는 append-only 기록이다.
type CompMatchModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement;column:id"`
	CompHash  string    `gorm:"column:comp_hash;uniqueIndex:idx_comp_matches_key;index"`
	MatchID   string    `gorm:"column:match_id;uniqueIndex:idx_comp_matches_key"`
	PUUID     string    `gorm:"column:puuid;uniqueIndex:idx_comp_matches_key"`
	Placement int       `gorm:"column:placement"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName: "comp_matches"
func (CompMatchModel) TableName() string {
	return "comp_matches"
}

// MetaSnapshotModel: meta_snapshots 테이블과 매핑되는 GORM 모델입니다.
// (date, set_number, patch) 조합당 하루 한 건이다.
type MetaSnapshotModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement;column:id"`
	Date       string `gorm:"column:date;uniqueIndex:idx_meta_snapshots_key"`
	SetNumber  int    `gorm:"column:set_number;uniqueIndex:idx_meta_snapshots_key"`
	Patch      string `gorm:"column:patch;uniqueIndex:idx_meta_snapshots_key"`
	TotalGames int    `gorm:"column:total_games"`

	Comps     datatypes.JSON `gorm:"column:comps;type:jsonb"`
	UnitStats datatypes.JSON `gorm:"column:unit_stats;type:jsonb"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName: "meta_snapshots"
func (MetaSnapshotModel) TableName() string {
	return "meta_snapshots"
}

// LadderSyncLogModel: ladder_sync_log 테이블과 매핑되는 GORM 모델입니다.
type LadderSyncLogModel struct {
	ID            uint      `gorm:"primaryKey;autoIncrement;column:id"`
	Tier          string    `gorm:"column:tier;uniqueIndex:idx_ladder_sync_key"`
	Platform      string    `gorm:"column:platform;uniqueIndex:idx_ladder_sync_key"`
	PlayersSynced int       `gorm:"column:players_synced"`
	MatchesSynced int       `gorm:"column:matches_synced"`
	LastRun       time.Time `gorm:"column:last_run"`
}

// TableName: "ladder_sync_log"
func (LadderSyncLogModel) TableName() string {
	return "ladder_sync_log"
}
