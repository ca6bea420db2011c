package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kapu/tft-coach-go/internal/config"
	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/service/aggregation"
	"github.com/kapu/tft-coach-go/internal/service/composition"
	"github.com/kapu/tft-coach-go/internal/service/riot"
	"github.com/kapu/tft-coach-go/internal/service/store"
	"github.com/kapu/tft-coach-go/pkg/errors"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubSource: 오케스트레이터용 Riot API 테스트 더블
type stubSource struct {
	matchIDs map[string][]string
	matches  map[string]*domain.RawMatch
	leagues  map[string]*riot.RawLeagueList
	idErr    error

	mu           stdsync.Mutex
	fetchedIDs   [][]string
	leagueCalled []string
}

func (s *stubSource) MatchIDsByPUUID(_ context.Context, _, puuid string, _ int) ([]string, error) {
	if s.idErr != nil {
		return nil, s.idErr
	}
	return s.matchIDs[puuid], nil
}

func (s *stubSource) MatchesByIDs(_ context.Context, _ string, matchIDs []string) (*riot.BatchResult, error) {
	s.mu.Lock()
	s.fetchedIDs = append(s.fetchedIDs, matchIDs)
	s.mu.Unlock()
	result := &riot.BatchResult{Failures: make(map[string]error)}
	for _, id := range matchIDs {
		if m, ok := s.matches[id]; ok {
			result.Matches = append(result.Matches, m)
		}
	}
	return result, nil
}

func (s *stubSource) ChallengerLeague(_ context.Context, platform string) (*riot.RawLeagueList, error) {
	s.mu.Lock()
	s.leagueCalled = append(s.leagueCalled, platform)
	s.mu.Unlock()
	return s.leagues[platform], nil
}

func (s *stubSource) leagueCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leagueCalled)
}

func rawMatch(id string, puuids ...string) *domain.RawMatch {
	participants := make([]domain.RawParticipant, 0, len(puuids))
	for i, puuid := range puuids {
		participants = append(participants, domain.RawParticipant{
			PUUID:     puuid,
			Placement: i + 1,
			Level:     8,
			LastRound: 30,
			Units: []domain.RawUnit{
				{CharacterID: "TFT15_Jinx", Tier: 2, Rarity: 4},
			},
		})
	}
	return &domain.RawMatch{
		Metadata: domain.RawMetadata{MatchID: id},
		Info: domain.RawInfo{
			GameDatetime: time.Now().UnixMilli(),
			GameVersion:  "Version 15.4",
			SetNumber:    15,
			Participants: participants,
		},
	}
}

func newTestOrchestrator(t *testing.T, source MatchSource) (*Orchestrator, *store.Repository) {
	t.Helper()

	dbName := strings.NewReplacer("/", "_", " ", "_", ":", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := store.NewRepository(db, newTestLogger())
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	engine := aggregation.NewEngine(repo, composition.NewDetector(), newTestLogger())
	cfg := config.SyncConfig{
		MatchesPerPlayer: 10,
		LadderMaxPlayers: 2,
		LadderPlatforms:  []string{"euw1"},
	}
	return NewOrchestrator(source, repo, engine, cfg, newTestLogger()), repo
}

func TestParseMode(t *testing.T) {
	if mode, err := ParseMode(""); err != nil || mode != ModeAll {
		t.Errorf("empty mode = (%s, %v)", mode, err)
	}
	if mode, err := ParseMode("ladder"); err != nil || mode != ModeLadder {
		t.Errorf("ladder mode = (%s, %v)", mode, err)
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestTrackedSyncSkipsExistingMatches(t *testing.T) {
	ids := make([]string, 10)
	source := &stubSource{
		matchIDs: map[string][]string{"p1": ids},
		matches:  make(map[string]*domain.RawMatch),
	}
	for i := range ids {
		ids[i] = fmt.Sprintf("EUW1_%d", i)
		source.matches[ids[i]] = rawMatch(ids[i], "p1", "px")
	}

	orch, repo := newTestOrchestrator(t, source)
	ctx := context.Background()

	if err := repo.UpsertPlayer(ctx, &domain.Player{PUUID: "p1", Platform: "euw1", Tracked: true}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}
	// 10개 중 3개는 이미 저장되어 있다.
	for _, id := range ids[:3] {
		match, parts, err := domain.NormalizeMatch(source.matches[id])
		if err != nil {
			t.Fatalf("normalize failed: %v", err)
		}
		if _, err := repo.SaveMatch(ctx, match, parts); err != nil {
			t.Fatalf("SaveMatch failed: %v", err)
		}
	}

	result, err := orch.Run(ctx, ModeTracked)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(source.fetchedIDs) != 1 || len(source.fetchedIDs[0]) != 7 {
		t.Errorf("fetched = %v, want single batch of 7", source.fetchedIDs)
	}
	if result.MatchesSaved != 7 {
		t.Errorf("saved = %d, want 7", result.MatchesSaved)
	}
	if result.PlayersSynced != 1 {
		t.Errorf("players = %d", result.PlayersSynced)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestTrackedSyncScoresParticipants(t *testing.T) {
	source := &stubSource{
		matchIDs: map[string][]string{"p1": {"M1"}},
		matches:  map[string]*domain.RawMatch{"M1": rawMatch("M1", "p1")},
	}
	orch, repo := newTestOrchestrator(t, source)
	ctx := context.Background()

	if err := repo.UpsertPlayer(ctx, &domain.Player{PUUID: "p1", Platform: "euw1", Tracked: true}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}
	if _, err := orch.Run(ctx, ModeTracked); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	games, err := repo.RecentGames(ctx, "p1", 1)
	if err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("games = %d", len(games))
	}
	// 레벨 8, 30라운드 → 템포 점수가 저장되어 있어야 한다.
	if games[0].Participant.TempoScore == 0 {
		t.Errorf("tempo score not persisted: %+v", games[0].Participant)
	}
}

func TestRunBudgetStopsWork(t *testing.T) {
	source := &stubSource{
		matchIDs: map[string][]string{"p1": {"M1"}},
		matches:  map[string]*domain.RawMatch{"M1": rawMatch("M1", "p1")},
	}
	orch, repo := newTestOrchestrator(t, source)
	ctx := context.Background()

	if err := repo.UpsertPlayer(ctx, &domain.Player{PUUID: "p1", Platform: "euw1", Tracked: true}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}

	// 시계를 예산 너머로 돌려 놓으면 새 작업을 시작하지 않아야 한다.
	base := time.Now()
	calls := 0
	orch.now = func() time.Time {
		calls++
		if calls == 1 {
			return base // 시작 시각
		}
		return base.Add(time.Hour) // 이후 모든 체크는 예산 초과
	}

	result, err := orch.Run(ctx, ModeTracked)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.BudgetExhausted {
		t.Error("expected budget exhausted")
	}
	if result.PlayersSynced != 0 || len(source.fetchedIDs) != 0 {
		t.Errorf("work done past budget: %+v", result)
	}
}

func TestLadderSyncRegistersPlayers(t *testing.T) {
	source := &stubSource{
		matchIDs: map[string][]string{
			"lp1": {"L1"},
			"lp2": {"L2"},
		},
		matches: map[string]*domain.RawMatch{
			"L1": rawMatch("L1", "lp1"),
			"L2": rawMatch("L2", "lp2"),
		},
		leagues: map[string]*riot.RawLeagueList{
			"euw1": {
				Tier: "CHALLENGER",
				Entries: []domain.LeagueEntry{
					{PUUID: "lp1", LeaguePoints: 1200},
					{PUUID: "lp3", LeaguePoints: 900},
					{PUUID: "lp2", LeaguePoints: 1500},
				},
			},
		},
	}
	orch, repo := newTestOrchestrator(t, source)
	ctx := context.Background()

	result, err := orch.Run(ctx, ModeLadder)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// LP 상위 2명만 (LadderMaxPlayers=2): lp2, lp1
	if result.PlayersSynced != 2 {
		t.Errorf("players = %d, want 2", result.PlayersSynced)
	}
	if result.MatchesSaved != 2 {
		t.Errorf("matches saved = %d, want 2", result.MatchesSaved)
	}

	existing, err := repo.ExistingMatchIDs(ctx, []string{"L1", "L2"})
	if err != nil {
		t.Fatalf("ExistingMatchIDs failed: %v", err)
	}
	if !existing["L1"] || !existing["L2"] {
		t.Errorf("ladder matches not saved: %v", existing)
	}
}

func TestUnauthorizedAbortsRun(t *testing.T) {
	source := &stubSource{
		idErr: errors.NewUnauthorizedError("/tft/match", 403),
	}
	orch, repo := newTestOrchestrator(t, source)
	ctx := context.Background()

	if err := repo.UpsertPlayer(ctx, &domain.Player{PUUID: "p1", Platform: "euw1", Tracked: true}); err != nil {
		t.Fatalf("UpsertPlayer failed: %v", err)
	}

	_, err := orch.Run(ctx, ModeTracked)
	if !errors.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized abort, got %v", err)
	}
}

func TestAggregateOnlyMode(t *testing.T) {
	source := &stubSource{}
	orch, _ := newTestOrchestrator(t, source)

	result, err := orch.Run(context.Background(), ModeAggregate)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Aggregation == nil {
		t.Fatal("aggregation result missing")
	}
	if len(source.fetchedIDs) != 0 || len(source.leagueCalled) != 0 {
		t.Errorf("aggregate-only mode must not call the api")
	}
}
