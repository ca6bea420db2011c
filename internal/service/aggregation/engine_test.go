package aggregation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/service/composition"
	"github.com/kapu/tft-coach-go/internal/service/store"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (*Engine, *store.Repository) {
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

	engine := NewEngine(repo, composition.NewDetector(), newTestLogger())
	engine.now = func() time.Time {
		return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	}
	return engine, repo
}

func boardGame(matchID, puuid string, placement int, units []domain.Unit) store.PlayerGame {
	return store.PlayerGame{
		Participant: domain.Participant{
			MatchID:   matchID,
			PUUID:     puuid,
			Placement: placement,
			Level:     8,
			LastRound: 30,
			Units:     units,
			Traits:    []domain.Trait{{Name: "Sniper", NumUnits: 4, Style: 2}},
		},
		Match: domain.Match{
			MatchID:      matchID,
			GameDatetime: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			GameVersion:  "Version 15.4",
			SetNumber:    15,
		},
	}
}

func TestAggregateStats(t *testing.T) {
	engine, _ := newTestEngine(t)
	units := []domain.Unit{
		{Name: "jinx", Rarity: 4, Items: []string{"InfinityEdge"}},
		{Name: "vi", Rarity: 1},
	}

	// 세 판의 순위: 1, 5, 8
	games := []store.PlayerGame{
		boardGame("M1", "p1", 1, units),
		boardGame("M2", "p2", 5, units),
		boardGame("M3", "p3", 8, units),
	}

	stats, snapshot, _, bridges := engine.Aggregate(games, 3)
	if len(stats) != 1 {
		t.Fatalf("stats = %d, want 1", len(stats))
	}

	s := stats[0]
	if s.CompHash != "jinx_vi" {
		t.Errorf("hash = %s", s.CompHash)
	}
	if s.AvgPlacement != 4.67 {
		t.Errorf("avg placement = %v, want 4.67", s.AvgPlacement)
	}
	if s.Top4Rate != 33.33 {
		t.Errorf("top4 rate = %v, want 33.33", s.Top4Rate)
	}
	if s.WinRate != 33.33 {
		t.Errorf("win rate = %v, want 33.33", s.WinRate)
	}
	if s.TotalGames != 3 {
		t.Errorf("total games = %d", s.TotalGames)
	}

	// 단일 조합이므로 최상위 등급이어야 한다.
	if s.Tier != domain.TierS {
		t.Errorf("tier = %s, want S", s.Tier)
	}

	if len(bridges) != 3 {
		t.Errorf("bridges = %d, want 3", len(bridges))
	}
	if snapshot == nil || snapshot.TotalGames != 3 {
		t.Fatalf("snapshot = %+v", snapshot)
	}
	if snapshot.Date != "2026-09-01" {
		t.Errorf("snapshot date = %s", snapshot.Date)
	}
}

func TestAggregateSuggestedItemsAndAugments(t *testing.T) {
	engine, _ := newTestEngine(t)

	units := func(item string) []domain.Unit {
		return []domain.Unit{{Name: "jinx", Rarity: 4, Items: []string{item, "GuinsooRageblade"}}}
	}

	g1 := boardGame("M1", "p1", 1, units("InfinityEdge"))
	g1.Participant.Augments = []string{"AugA", "AugB"}
	g2 := boardGame("M2", "p2", 2, units("InfinityEdge"))
	g2.Participant.Augments = []string{"AugA"}
	g3 := boardGame("M3", "p3", 8, units("Deathblade"))
	g3.Participant.Augments = []string{"AugB"}

	stats, _, _, _ := engine.Aggregate([]store.PlayerGame{g1, g2, g3}, 3)
	if len(stats) != 1 {
		t.Fatalf("stats = %d", len(stats))
	}

	items := stats[0].SuggestedItems
	if len(items) != 3 {
		t.Fatalf("items = %+v, want top 3", items)
	}
	if items[0].Name != "GuinsooRageblade" || items[0].Count != 3 {
		t.Errorf("top item = %+v", items[0])
	}

	augments := stats[0].SuggestedAugments
	if len(augments) != 2 {
		t.Fatalf("augments = %+v", augments)
	}
	// AugA 평균 1.5등이 AugB 평균 4.5등보다 앞선다.
	if augments[0].Name != "AugA" || augments[0].AvgPlacement != 1.5 {
		t.Errorf("best augment = %+v", augments[0])
	}
}

func TestTierDistributionTwentyComps(t *testing.T) {
	engine, _ := newTestEngine(t)

	stats := make([]domain.CompositionStats, 0, 20)
	for i := 0; i < 20; i++ {
		stats = append(stats, domain.CompositionStats{
			CompHash:     fmt.Sprintf("comp_%02d", i),
			TotalGames:   5,
			AvgPlacement: 1 + float64(i)*0.3,
			Top4Rate:     100 - float64(i)*4,
			WinRate:      40 - float64(i)*2,
		})
	}

	engine.assignTiers(stats, nil, 3)

	counts := make(map[domain.Tier]int)
	for _, s := range stats {
		counts[s.Tier]++
	}
	if counts[domain.TierS] != 2 || counts[domain.TierA] != 4 || counts[domain.TierB] != 7 || counts[domain.TierC] != 7 {
		t.Errorf("tier distribution = %v, want S:2 A:4 B:7 C:7", counts)
	}
}

func TestMinGamesForcedToTierC(t *testing.T) {
	engine, _ := newTestEngine(t)

	units := []domain.Unit{{Name: "jinx", Rarity: 4}}
	games := []store.PlayerGame{
		boardGame("M1", "p1", 1, units),
		boardGame("M2", "p2", 1, units),
	}

	stats, snapshot, _, _ := engine.Aggregate(games, 3)
	if len(stats) != 1 {
		t.Fatalf("stats = %d", len(stats))
	}
	if stats[0].Tier != domain.TierC || stats[0].Score != 0 {
		t.Errorf("under-threshold comp = tier %s score %v, want C/0", stats[0].Tier, stats[0].Score)
	}
	// C 등급은 스냅샷에서 빠진다.
	if snapshot != nil && len(snapshot.Comps) != 0 {
		t.Errorf("snapshot comps = %+v, want empty", snapshot.Comps)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t)

	units := []domain.Unit{{Name: "jinx", Rarity: 4}, {Name: "vi", Rarity: 1}}
	games := []store.PlayerGame{
		boardGame("M1", "p1", 1, units),
		boardGame("M2", "p2", 3, units),
		boardGame("M3", "p3", 6, units),
	}

	stats1, snap1, _, _ := engine.Aggregate(games, 3)
	stats2, snap2, _, _ := engine.Aggregate(games, 3)

	if !reflect.DeepEqual(stats1, stats2) {
		t.Errorf("stats not idempotent:\n%+v\n%+v", stats1, stats2)
	}
	if !reflect.DeepEqual(snap1, snap2) {
		t.Errorf("snapshot not idempotent")
	}
}

func TestRunPersistsResults(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	units := []domain.Unit{{Name: "jinx", Rarity: 4}, {Name: "vi", Rarity: 1}}
	for i, placement := range []int{1, 4, 7} {
		id := fmt.Sprintf("M%d", i)
		match := &domain.Match{
			MatchID:      id,
			GameDatetime: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			GameVersion:  "Version 15.4",
			SetNumber:    15,
		}
		parts := []domain.Participant{{
			MatchID:   id,
			PUUID:     fmt.Sprintf("p%d", i),
			Placement: placement,
			Level:     8,
			LastRound: 30,
			Units:     units,
		}}
		if _, err := repo.SaveMatch(ctx, match, parts); err != nil {
			t.Fatalf("SaveMatch failed: %v", err)
		}
	}

	result, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.CompsProcessed != 1 || !result.SnapshotSaved {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v", result.Errors)
	}

	// 백필 확인
	games, err := repo.RecentGames(ctx, "p0", 1)
	if err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	if games[0].Participant.CompHash != "jinx_vi" {
		t.Errorf("backfilled hash = %q", games[0].Participant.CompHash)
	}

	// 재실행해도 같은 결과여야 한다.
	again, err := engine.Run(ctx)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if again.CompsProcessed != 1 || len(again.Errors) != 0 {
		t.Errorf("second run = %+v", again)
	}

	snapshot, err := repo.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if snapshot == nil || snapshot.Date != "2026-09-01" {
		t.Errorf("snapshot = %+v", snapshot)
	}
}

func TestMetaTagsLevelNineKeepsFastEight(t *testing.T) {
	engine, _ := newTestEngine(t)
	units := []domain.Unit{{Name: "jinx", Rarity: 4}}

	games := []store.PlayerGame{
		boardGame("M1", "p1", 1, units),
		boardGame("M2", "p2", 2, units),
		boardGame("M3", "p3", 3, units),
	}
	for i := range games {
		games[i].Participant.Level = 9
	}

	stats, _, _, _ := engine.Aggregate(games, 3)
	if len(stats) != 1 {
		t.Fatalf("stats = %d, want 1", len(stats))
	}

	// 평균 레벨 9는 fast-8 단계도 지나므로 두 템포 태그를 모두 받는다.
	for _, want := range []string{"fast-8", "fast-9"} {
		if !hasMetaTag(stats[0].MetaTags, want) {
			t.Errorf("tags = %v, missing %s", stats[0].MetaTags, want)
		}
	}
}

func hasMetaTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func TestSnapshotUnitPickRatePerSeat(t *testing.T) {
	engine, _ := newTestEngine(t)
	compA := []domain.Unit{{Name: "jinx", Rarity: 4}, {Name: "vi", Rarity: 1}}
	compB := []domain.Unit{{Name: "caitlyn", Rarity: 4}, {Name: "jinx", Rarity: 4}}

	// 세 경기 모두에서 두 조합이 jinx를 사용한다.
	games := []store.PlayerGame{
		boardGame("M1", "p1", 1, compA),
		boardGame("M1", "p2", 2, compB),
		boardGame("M2", "p3", 3, compA),
		boardGame("M2", "p4", 4, compB),
		boardGame("M3", "p5", 5, compA),
		boardGame("M3", "p6", 6, compB),
	}

	_, snapshot, _, _ := engine.Aggregate(games, 3)
	if snapshot == nil {
		t.Fatal("snapshot is nil")
	}

	var jinx *domain.UnitStat
	for i := range snapshot.UnitStats {
		if snapshot.UnitStats[i].Name == "jinx" {
			jinx = &snapshot.UnitStats[i]
		}
	}
	if jinx == nil {
		t.Fatalf("unit stats = %+v", snapshot.UnitStats)
	}
	if jinx.Games != 6 {
		t.Errorf("jinx games = %d, want 6", jinx.Games)
	}
	// 경기당 8자리 기준: 6 / (3*8) = 25%
	if jinx.PickRate != 25 {
		t.Errorf("jinx pick rate = %v, want 25", jinx.PickRate)
	}
}
