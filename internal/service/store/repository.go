package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/domain"
	apperrors "github.com/kapu/tft-coach-go/pkg/errors"
)

// Repository: 매치/조합/스냅샷 데이터에 대한 데이터베이스 접근을 담당하는 저장소
type Repository struct {
	gormDB *gorm.DB
	logger *slog.Logger
}

// NewRepository: 새로운 Repository 인스턴스를 생성합니다.
func NewRepository(gormDB *gorm.DB, logger *slog.Logger) *Repository {
	return &Repository{
		gormDB: gormDB,
		logger: logger,
	}
}

// Migrate: 스키마를 생성하거나 갱신한다.
func (r *Repository) Migrate(ctx context.Context) error {
	err := r.gormDB.WithContext(ctx).AutoMigrate(
		&MatchModel{},
		&ParticipantModel{},
		&PlayerModel{},
		&CompStatsModel{},
		&CompMatchModel{},
		&MetaSnapshotModel{},
		&LadderSyncLogModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// PlayerGame: 참가 기록과 해당 매치 메타데이터를 묶은 조회 결과
type PlayerGame struct {
	Participant domain.Participant
	Match       domain.Match
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 23505: unique_violation
		return string(pqErr.Code) == "23505"
	}
	// sqlite 등 드라이버별 메시지 fallback
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func marshalJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return datatypes.JSON("null"), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return datatypes.JSON(data), nil
}

func toParticipantModel(p *domain.Participant) (*ParticipantModel, error) {
	units, err := marshalJSON(p.Units)
	if err != nil {
		return nil, err
	}
	traits, err := marshalJSON(p.Traits)
	if err != nil {
		return nil, err
	}
	augments, err := marshalJSON(p.Augments)
	if err != nil {
		return nil, err
	}

	model := &ParticipantModel{
		ID:                p.ID,
		MatchID:           p.MatchID,
		PUUID:             p.PUUID,
		Placement:         p.Placement,
		Level:             p.Level,
		GoldLeft:          p.GoldLeft,
		LastRound:         p.LastRound,
		PlayersEliminated: p.PlayersEliminated,
		DamageToPlayers:   p.DamageToPlayers,
		TimeEliminated:    p.TimeEliminated,
		Units:             units,
		Traits:            traits,
		Augments:          augments,
		TempoScore:        p.TempoScore,
		EconScore:         p.EconScore,
		SynergyScore:      p.SynergyScore,
	}
	if p.CompHash != "" {
		model.CompHash = &p.CompHash
	}
	return model, nil
}

func toDomainParticipant(m *ParticipantModel) (domain.Participant, error) {
	p := domain.Participant{
		ID:                m.ID,
		MatchID:           m.MatchID,
		PUUID:             m.PUUID,
		Placement:         m.Placement,
		Level:             m.Level,
		GoldLeft:          m.GoldLeft,
		LastRound:         m.LastRound,
		PlayersEliminated: m.PlayersEliminated,
		DamageToPlayers:   m.DamageToPlayers,
		TimeEliminated:    m.TimeEliminated,
		TempoScore:        m.TempoScore,
		EconScore:         m.EconScore,
		SynergyScore:      m.SynergyScore,
		CreatedAt:         m.CreatedAt,
	}
	if m.CompHash != nil {
		p.CompHash = *m.CompHash
	}
	if len(m.Units) > 0 {
		if err := json.Unmarshal(m.Units, &p.Units); err != nil {
			return p, fmt.Errorf("failed to unmarshal units: %w", err)
		}
	}
	if len(m.Traits) > 0 {
		if err := json.Unmarshal(m.Traits, &p.Traits); err != nil {
			return p, fmt.Errorf("failed to unmarshal traits: %w", err)
		}
	}
	if len(m.Augments) > 0 {
		if err := json.Unmarshal(m.Augments, &p.Augments); err != nil {
			return p, fmt.Errorf("failed to unmarshal augments: %w", err)
		}
	}
	return p, nil
}

// SaveMatch: 매치와 참가자를 저장한다. 이미 있는 매치는 건너뛴다.
func (r *Repository) SaveMatch(ctx context.Context, match *domain.Match, participants []domain.Participant) (bool, error) {
	matchModel := &MatchModel{
		MatchID:      match.MatchID,
		GameDatetime: match.GameDatetime,
		GameLength:   match.GameLength,
		GameVersion:  match.GameVersion,
		QueueID:      match.QueueID,
		SetNumber:    match.SetNumber,
	}

	inserted := false
	err := r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "match_id"}},
			DoNothing: true,
		}).Create(matchModel)
		if result.Error != nil {
			return fmt.Errorf("failed to insert match: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil // 이미 저장된 매치
		}
		inserted = true

		for i := range participants {
			model, err := toParticipantModel(&participants[i])
			if err != nil {
				return err
			}
			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "match_id"}, {Name: "puuid"}},
				DoNothing: true,
			}).Create(model).Error
			if err != nil {
				if isDuplicateKeyError(err) {
					continue
				}
				return fmt.Errorf("failed to insert participant: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if inserted {
		r.logger.Debug("Match saved",
			slog.String("match_id", match.MatchID),
			slog.Int("participants", len(participants)),
		)
	}
	return inserted, nil
}

// ExistingMatchIDs: 주어진 ID 중 이미 저장된 것들을 돌려준다.
func (r *Repository) ExistingMatchIDs(ctx context.Context, matchIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(matchIDs))
	if len(matchIDs) == 0 {
		return existing, nil
	}

	var found []string
	err := r.gormDB.WithContext(ctx).
		Model(&MatchModel{}).
		Where("match_id IN ?", matchIDs).
		Pluck("match_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query existing matches: %w", err)
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// RecentGames: 플레이어의 최근 참가 기록을 매치 시각 내림차순으로 돌려준다.
func (r *Repository) RecentGames(ctx context.Context, puuid string, limit int) ([]PlayerGame, error) {
	var rows []struct {
		ParticipantModel
		GameDatetime time.Time
		GameLength   int
		GameVersion  string
		QueueID      int
		SetNumber    int
	}

	err := r.gormDB.WithContext(ctx).
		Table("participants").
		Select("participants.*, matches.game_datetime, matches.game_length, matches.game_version, matches.queue_id, matches.set_number").
		Joins("JOIN matches ON matches.match_id = participants.match_id").
		Where("participants.puuid = ?", puuid).
		Order("matches.game_datetime DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent games: %w", err)
	}

	games := make([]PlayerGame, 0, len(rows))
	for i := range rows {
		participant, err := toDomainParticipant(&rows[i].ParticipantModel)
		if err != nil {
			return nil, err
		}
		games = append(games, PlayerGame{
			Participant: participant,
			Match: domain.Match{
				MatchID:      rows[i].MatchID,
				GameDatetime: rows[i].GameDatetime,
				GameLength:   rows[i].GameLength,
				GameVersion:  rows[i].GameVersion,
				QueueID:      rows[i].QueueID,
				SetNumber:    rows[i].SetNumber,
			},
		})
	}
	return games, nil
}

// GamesSince: 집계 윈도우 내의 모든 참가 기록을 돌려준다.
func (r *Repository) GamesSince(ctx context.Context, since time.Time) ([]PlayerGame, error) {
	var rows []struct {
		ParticipantModel
		GameDatetime time.Time
		GameLength   int
		GameVersion  string
		QueueID      int
		SetNumber    int
	}

	err := r.gormDB.WithContext(ctx).
		Table("participants").
		Select("participants.*, matches.game_datetime, matches.game_length, matches.game_version, matches.queue_id, matches.set_number").
		Joins("JOIN matches ON matches.match_id = participants.match_id").
		Where("matches.game_datetime >= ?", since).
		Order("matches.game_datetime ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query games since %s: %w", since.Format(time.RFC3339), err)
	}

	games := make([]PlayerGame, 0, len(rows))
	for i := range rows {
		participant, err := toDomainParticipant(&rows[i].ParticipantModel)
		if err != nil {
			return nil, err
		}
		games = append(games, PlayerGame{
			Participant: participant,
			Match: domain.Match{
				MatchID:      rows[i].MatchID,
				GameDatetime: rows[i].GameDatetime,
				GameLength:   rows[i].GameLength,
				GameVersion:  rows[i].GameVersion,
				QueueID:      rows[i].QueueID,
				SetNumber:    rows[i].SetNumber,
			},
		})
	}
	return games, nil
}

// UpsertPlayer: 플레이어를 저장하거나 갱신한다.
func (r *Repository) UpsertPlayer(ctx context.Context, player *domain.Player) error {
	model := &PlayerModel{
		PUUID:    player.PUUID,
		GameName: player.GameName,
		TagLine:  player.TagLine,
		Platform: player.Platform,
		Tier:     player.Tier,
		Tracked:  player.Tracked,
	}
	if !player.LastSynced.IsZero() {
		t := player.LastSynced
		model.LastSynced = &t
	}

	err := r.gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "puuid"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"game_name", "tag_line", "platform", "tier", "tracked", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		return apperrors.NewConflictError("players", player.PUUID, err)
	}
	return nil
}

// PlayerByPUUID: 플레이어 레코드를 조회한다. 없으면 nil을 돌려준다.
func (r *Repository) PlayerByPUUID(ctx context.Context, puuid string) (*domain.Player, error) {
	var model PlayerModel
	err := r.gormDB.WithContext(ctx).
		Where("puuid = ?", puuid).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query player: %w", err)
	}

	player := &domain.Player{
		PUUID:     model.PUUID,
		GameName:  model.GameName,
		TagLine:   model.TagLine,
		Platform:  model.Platform,
		Tier:      model.Tier,
		Tracked:   model.Tracked,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.LastSynced != nil {
		player.LastSynced = *model.LastSynced
	}
	return player, nil
}

// TrackedPlayers: 추적 중인 플레이어 목록을 돌려준다.
func (r *Repository) TrackedPlayers(ctx context.Context) ([]domain.Player, error) {
	var models []PlayerModel
	err := r.gormDB.WithContext(ctx).
		Where("tracked = ?", true).
		Order("puuid").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked players: %w", err)
	}

	players := make([]domain.Player, 0, len(models))
	for _, m := range models {
		p := domain.Player{
			PUUID:     m.PUUID,
			GameName:  m.GameName,
			TagLine:   m.TagLine,
			Platform:  m.Platform,
			Tier:      m.Tier,
			Tracked:   m.Tracked,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		}
		if m.LastSynced != nil {
			p.LastSynced = *m.LastSynced
		}
		players = append(players, p)
	}
	return players, nil
}

// MarkPlayerSynced: 마지막 동기화 시각을 기록한다.
func (r *Repository) MarkPlayerSynced(ctx context.Context, puuid string, at time.Time) error {
	err := r.gormDB.WithContext(ctx).
		Model(&PlayerModel{}).
		Where("puuid = ?", puuid).
		Update("last_synced", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark player synced: %w", err)
	}
	return nil
}

func toCompStatsModel(s *domain.CompositionStats) (*CompStatsModel, error) {
	metaTags, err := marshalJSON(s.MetaTags)
	if err != nil {
		return nil, err
	}
	coreUnits, err := marshalJSON(s.CoreUnits)
	if err != nil {
		return nil, err
	}
	items, err := marshalJSON(s.SuggestedItems)
	if err != nil {
		return nil, err
	}
	augments, err := marshalJSON(s.SuggestedAugments)
	if err != nil {
		return nil, err
	}

	return &CompStatsModel{
		CompHash:          s.CompHash,
		Name:              s.Name,
		SetNumber:         s.SetNumber,
		Patch:             s.Patch,
		TotalGames:        s.TotalGames,
		AvgPlacement:      s.AvgPlacement,
		Top4Rate:          s.Top4Rate,
		WinRate:           s.WinRate,
		PickRate:          s.PickRate,
		Score:             s.Score,
		Tier:              string(s.Tier),
		AvgLevel:          s.AvgLevel,
		MetaTags:          metaTags,
		CoreUnits:         coreUnits,
		SuggestedItems:    items,
		SuggestedAugments: augments,
	}, nil
}

func toDomainCompStats(m *CompStatsModel) (domain.CompositionStats, error) {
	s := domain.CompositionStats{
		CompHash:     m.CompHash,
		Name:         m.Name,
		SetNumber:    m.SetNumber,
		Patch:        m.Patch,
		TotalGames:   m.TotalGames,
		AvgPlacement: m.AvgPlacement,
		Top4Rate:     m.Top4Rate,
		WinRate:      m.WinRate,
		PickRate:     m.PickRate,
		Score:        m.Score,
		Tier:         domain.Tier(m.Tier),
		AvgLevel:     m.AvgLevel,
		UpdatedAt:    m.UpdatedAt,
	}
	if len(m.MetaTags) > 0 {
		if err := json.Unmarshal(m.MetaTags, &s.MetaTags); err != nil {
			return s, fmt.Errorf("failed to unmarshal meta tags: %w", err)
		}
	}
	if len(m.CoreUnits) > 0 {
		if err := json.Unmarshal(m.CoreUnits, &s.CoreUnits); err != nil {
			return s, fmt.Errorf("failed to unmarshal core units: %w", err)
		}
	}
	if len(m.SuggestedItems) > 0 {
		if err := json.Unmarshal(m.SuggestedItems, &s.SuggestedItems); err != nil {
			return s, fmt.Errorf("failed to unmarshal suggested items: %w", err)
		}
	}
	if len(m.SuggestedAugments) > 0 {
		if err := json.Unmarshal(m.SuggestedAugments, &s.SuggestedAugments); err != nil {
			return s, fmt.Errorf("failed to unmarshal suggested augments: %w", err)
		}
	}
	return s, nil
}

// UpsertCompStats: 집계 결과를 저장한다. comp_hash 기준으로 통째로 갱신한다.
func (r *Repository) UpsertCompStats(ctx context.Context, stats []domain.CompositionStats) error {
	for i := range stats {
		model, err := toCompStatsModel(&stats[i])
		if err != nil {
			return err
		}
		err = r.gormDB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "comp_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "set_number", "patch", "total_games", "avg_placement",
				"top4_rate", "win_rate", "pick_rate", "score", "tier", "avg_level",
				"meta_tags", "core_units", "suggested_items", "suggested_augments",
				"updated_at",
			}),
		}).Create(model).Error
		if err != nil {
			return apperrors.NewConflictError("comp_aggregation_log", stats[i].CompHash, err)
		}
	}
	return nil
}

// ListCompStats: 저장된 조합 통계를 점수 내림차순으로 돌려준다.
func (r *Repository) ListCompStats(ctx context.Context) ([]domain.CompositionStats, error) {
	var models []CompStatsModel
	err := r.gormDB.WithContext(ctx).
		Order("score DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query comp stats: %w", err)
	}

	stats := make([]domain.CompositionStats, 0, len(models))
	for i := range models {
		s, err := toDomainCompStats(&models[i])
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// CompStatsByHashes: 해시 목록에 해당하는 조합 통계를 돌려준다.
func (r *Repository) CompStatsByHashes(ctx context.Context, hashes []string) (map[string]domain.CompositionStats, error) {
	result := make(map[string]domain.CompositionStats, len(hashes))
	if len(hashes) == 0 {
		return result, nil
	}

	var models []CompStatsModel
	err := r.gormDB.WithContext(ctx).
		Where("comp_hash IN ?", hashes).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query comp stats by hash: %w", err)
	}

	for i := range models {
		s, err := toDomainCompStats(&models[i])
		if err != nil {
			return nil, err
		}
		result[s.CompHash] = s
	}
	return result, nil
}

// InsertCompMatches: 조합-매치 브리지 레코드를 넣는다. 중복은 조용히 무시한다.
func (r *Repository) InsertCompMatches(ctx context.Context, records []CompMatchModel) error {
	if len(records) == 0 {
		return nil
	}
	err := r.gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comp_hash"}, {Name: "match_id"}, {Name: "puuid"}},
		DoNothing: true,
	}).Create(&records).Error
	if err != nil && !isDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert comp matches: %w", err)
	}
	return nil
}

// BackfillCompHashes: 참가 레코드에 조합 해시를 배치로 채워 넣는다.
func (r *Repository) BackfillCompHashes(ctx context.Context, assignments map[uint]string) error {
	if len(assignments) == 0 {
		return nil
	}

	// 해시별로 묶어 UPDATE 횟수를 줄인다.
	byHash := make(map[string][]uint)
	for id, hash := range assignments {
		byHash[hash] = append(byHash[hash], id)
	}

	batchSize := constants.AggregationConfig.BackfillBatchSize
	for hash, ids := range byHash {
		for start := 0; start < len(ids); start += batchSize {
			end := start + batchSize
			if end > len(ids) {
				end = len(ids)
			}
			err := r.gormDB.WithContext(ctx).
				Model(&ParticipantModel{}).
				Where("id IN ?", ids[start:end]).
				Update("comp_hash", hash).Error
			if err != nil {
				return fmt.Errorf("failed to backfill comp hash: %w", err)
			}
		}
	}
	return nil
}

// SaveSnapshot: 메타 스냅샷을 저장한다. 같은 (date, set, patch)는 갱신한다.
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *domain.MetaSnapshot) error {
	comps, err := marshalJSON(snapshot.Comps)
	if err != nil {
		return err
	}
	unitStats, err := marshalJSON(snapshot.UnitStats)
	if err != nil {
		return err
	}

	model := &MetaSnapshotModel{
		Date:       snapshot.Date,
		SetNumber:  snapshot.SetNumber,
		Patch:      snapshot.Patch,
		TotalGames: snapshot.TotalGames,
		Comps:      comps,
		UnitStats:  unitStats,
	}

	err = r.gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "set_number"}, {Name: "patch"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_games", "comps", "unit_stats",
		}),
	}).Create(model).Error
	if err != nil {
		return apperrors.NewConflictError("meta_snapshots", snapshot.Date, err)
	}
	return nil
}

// LatestSnapshot: 가장 최근 스냅샷을 돌려준다. 없으면 (nil, nil)이다.
func (r *Repository) LatestSnapshot(ctx context.Context) (*domain.MetaSnapshot, error) {
	var model MetaSnapshotModel
	err := r.gormDB.WithContext(ctx).
		Order("date DESC, id DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	snapshot := &domain.MetaSnapshot{
		Date:       model.Date,
		SetNumber:  model.SetNumber,
		Patch:      model.Patch,
		TotalGames: model.TotalGames,
		CreatedAt:  model.CreatedAt,
	}
	if len(model.Comps) > 0 {
		if err := json.Unmarshal(model.Comps, &snapshot.Comps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot comps: %w", err)
		}
	}
	if len(model.UnitStats) > 0 {
		if err := json.Unmarshal(model.UnitStats, &snapshot.UnitStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot unit stats: %w", err)
		}
	}
	return snapshot, nil
}

// RecordLadderSync: 사다리 동기화 실행 기록을 남긴다.
func (r *Repository) RecordLadderSync(ctx context.Context, tier, platform string, players, matches int) error {
	model := &LadderSyncLogModel{
		Tier:          tier,
		Platform:      platform,
		PlayersSynced: players,
		MatchesSynced: matches,
		LastRun:       time.Now().UTC(),
	}
	err := r.gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tier"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"players_synced", "matches_synced", "last_run",
		}),
	}).Create(model).Error
	if err != nil {
		return apperrors.NewConflictError("ladder_sync_log", tier+"/"+platform, err)
	}
	return nil
}
