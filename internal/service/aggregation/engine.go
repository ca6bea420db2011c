package aggregation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"log/slog"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/service/composition"
	"github.com/kapu/tft-coach-go/internal/service/store"
	"github.com/kapu/tft-coach-go/internal/util"
)

// Engine: 집계 윈도우의 참가 기록을 조합별로 묶어 통계, 등급, 메타 스냅샷을 산출한다.
// 같은 입력에 대해 항상 같은 결과를 내야 한다. (재실행 멱등)
type Engine struct {
	repo     *store.Repository
	detector *composition.Detector
	logger   *slog.Logger

	now func() time.Time
}

// NewEngine: 새로운 집계 엔진을 생성한다.
func NewEngine(repo *store.Repository, detector *composition.Detector, logger *slog.Logger) *Engine {
	return &Engine{
		repo:     repo,
		detector: detector,
		logger:   logger,
		now:      time.Now,
	}
}

// Result: 집계 실행 결과 요약
type Result struct {
	CompsProcessed int      `json:"comps_processed"`
	GamesInWindow  int      `json:"games_in_window"`
	SnapshotSaved  bool     `json:"snapshot_saved"`
	Errors         []string `json:"errors,omitempty"`
}

// compGroup: 조합 하나의 집계 작업 상태
type compGroup struct {
	hash         string
	name         string
	participants []*domain.Participant
	matches      []*domain.Match
	placements   []int
	wins         int
	top4         int

	// 유닛별 아이템 동시 등장 횟수
	itemCounts map[string]map[string]int
	// 증강별 등장 순위 목록
	augmentPlacements map[string][]int
}

// Run: 윈도우 집계를 수행하고 결과를 저장한다.
// 단계별 실패는 Errors에 모으고 진행 가능한 데까지 진행한다.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	since := e.now().UTC().Add(-time.Duration(constants.AggregationConfig.WindowHours) * time.Hour)

	games, err := e.repo.GamesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregation window: %w", err)
	}

	result := &Result{}
	stats, snapshot, assignments, bridges := e.Aggregate(games, constants.AggregationConfig.MinGames)
	result.CompsProcessed = len(stats)
	result.GamesInWindow = countDistinctMatches(games)

	if len(stats) == 0 {
		e.logger.Info("Aggregation window empty, nothing to do")
		return result, nil
	}

	if err := e.repo.UpsertCompStats(ctx, stats); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("comp stats upsert: %v", err))
	}
	if err := e.repo.InsertCompMatches(ctx, bridges); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("comp matches insert: %v", err))
	}
	if err := e.repo.BackfillCompHashes(ctx, assignments); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("comp hash backfill: %v", err))
	}
	if snapshot != nil {
		if err := e.repo.SaveSnapshot(ctx, snapshot); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("snapshot save: %v", err))
		} else {
			result.SnapshotSaved = true
		}
	}

	e.logger.Info("Aggregation finished",
		slog.Int("comps", result.CompsProcessed),
		slog.Int("games", result.GamesInWindow),
		slog.Bool("snapshot", result.SnapshotSaved),
		slog.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func countDistinctMatches(games []store.PlayerGame) int {
	seen := make(map[string]bool, len(games))
	for i := range games {
		seen[games[i].Match.MatchID] = true
	}
	return len(seen)
}

// Aggregate: 순수 집계 함수. 조합 통계, 스냅샷, 백필 대상, 브리지 레코드를 돌려준다.
func (e *Engine) Aggregate(games []store.PlayerGame, minGames int) (
	[]domain.CompositionStats, *domain.MetaSnapshot, map[uint]string, []store.CompMatchModel,
) {
	windowTotalGames := countDistinctMatches(games)
	groups := e.groupByComp(games)
	if len(groups) == 0 {
		return nil, nil, nil, nil
	}

	stats := e.buildStats(groups, windowTotalGames)
	e.assignTiers(stats, groups, minGames)

	assignments := make(map[uint]string)
	bridges := make([]store.CompMatchModel, 0, len(games))
	for _, g := range groups {
		for i, p := range g.participants {
			if p.ID != 0 {
				assignments[p.ID] = g.hash
			}
			bridges = append(bridges, store.CompMatchModel{
				CompHash:  g.hash,
				MatchID:   p.MatchID,
				PUUID:     p.PUUID,
				Placement: g.placements[i],
			})
		}
	}

	snapshot := e.buildSnapshot(stats, windowTotalGames)
	return stats, snapshot, assignments, bridges
}

func (e *Engine) groupByComp(games []store.PlayerGame) map[string]*compGroup {
	groups := make(map[string]*compGroup)
	for i := range games {
		p := &games[i].Participant
		hash, name := e.detector.Detect(p)

		g := groups[hash]
		if g == nil {
			g = &compGroup{
				hash:              hash,
				name:              name,
				itemCounts:        make(map[string]map[string]int),
				augmentPlacements: make(map[string][]int),
			}
			groups[hash] = g
		}

		g.participants = append(g.participants, p)
		g.matches = append(g.matches, &games[i].Match)
		g.placements = append(g.placements, p.Placement)
		if p.IsWin() {
			g.wins++
		}
		if p.IsTop4() {
			g.top4++
		}

		for _, unit := range p.Units {
			if len(unit.Items) == 0 {
				continue
			}
			counts := g.itemCounts[unit.Name]
			if counts == nil {
				counts = make(map[string]int)
				g.itemCounts[unit.Name] = counts
			}
			for _, item := range unit.Items {
				counts[item]++
			}
		}
		for _, augment := range p.Augments {
			g.augmentPlacements[augment] = append(g.augmentPlacements[augment], p.Placement)
		}
	}
	return groups
}

func (e *Engine) buildStats(groups map[string]*compGroup, windowTotalGames int) []domain.CompositionStats {
	stats := make([]domain.CompositionStats, 0, len(groups))
	for _, g := range groups {
		n := len(g.placements)
		if n == 0 {
			continue
		}

		latest := g.matches[len(g.matches)-1]
		template := g.participants[len(g.participants)-1]

		pickRate := 0.0
		if windowTotalGames > 0 {
			pickRate = float64(n) / float64(windowTotalGames) * 100
		}

		s := domain.CompositionStats{
			CompHash:          g.hash,
			Name:              g.name,
			SetNumber:         latest.SetNumber,
			Patch:             latest.Patch(),
			TotalGames:        n,
			AvgPlacement:      util.Round2(util.MeanInt(g.placements)),
			Top4Rate:          util.Round2(float64(g.top4) / float64(n) * 100),
			WinRate:           util.Round2(float64(g.wins) / float64(n) * 100),
			PickRate:          util.Round2(pickRate),
			AvgLevel:          util.Round2(avgLevel(g.participants)),
			CoreUnits:         e.detector.CoreUnits(template.Units, 8),
			SuggestedItems:    suggestedItems(g.itemCounts, n),
			SuggestedAugments: suggestedAugments(g.augmentPlacements),
		}
		s.MetaTags = metaTags(&s, g)
		stats = append(stats, s)
	}

	// 결정적 순서를 위해 해시로 정렬해 둔다.
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CompHash < stats[j].CompHash
	})
	return stats
}

func avgLevel(participants []*domain.Participant) float64 {
	levels := make([]int, 0, len(participants))
	for _, p := range participants {
		levels = append(levels, p.Level)
	}
	return util.MeanInt(levels)
}

func avgLastRound(participants []*domain.Participant) float64 {
	rounds := make([]int, 0, len(participants))
	for _, p := range participants {
		rounds = append(rounds, p.LastRound)
	}
	return util.MeanInt(rounds)
}

func avgUnitCost(units []domain.Unit) float64 {
	if len(units) == 0 {
		return 0
	}
	costs := make([]int, 0, len(units))
	for _, u := range units {
		costs = append(costs, u.Rarity)
	}
	return util.MeanInt(costs)
}

// suggestedItems: 유닛별 상위 3개 아이템을 동시 등장 횟수 기준으로 뽑는다.
func suggestedItems(itemCounts map[string]map[string]int, n int) []domain.SuggestedItem {
	unitNames := make([]string, 0, len(itemCounts))
	for unit := range itemCounts {
		unitNames = append(unitNames, unit)
	}
	sort.Strings(unitNames)

	suggestions := make([]domain.SuggestedItem, 0, len(unitNames)*constants.AggregationConfig.SuggestedItemCount)
	for _, unit := range unitNames {
		counts := itemCounts[unit]
		items := make([]domain.SuggestedItem, 0, len(counts))
		for item, count := range counts {
			items = append(items, domain.SuggestedItem{
				Unit:  unit,
				Name:  item,
				Count: count,
				Rate:  util.Round2(float64(count) / float64(n) * 100),
			})
		}
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].Count != items[j].Count {
				return items[i].Count > items[j].Count
			}
			return items[i].Name < items[j].Name
		})
		if len(items) > constants.AggregationConfig.SuggestedItemCount {
			items = items[:constants.AggregationConfig.SuggestedItemCount]
		}
		suggestions = append(suggestions, items...)
	}
	return suggestions
}

// suggestedAugments: 2회 이상 등장한 증강을 평균 등수 오름차순으로 상위 5개 뽑는다.
func suggestedAugments(augmentPlacements map[string][]int) []domain.SuggestedAugment {
	augments := make([]domain.SuggestedAugment, 0, len(augmentPlacements))
	for name, placements := range augmentPlacements {
		if len(placements) < constants.AggregationConfig.MinAugmentSeen {
			continue
		}
		top4 := 0
		for _, placement := range placements {
			if placement <= 4 {
				top4++
			}
		}
		augments = append(augments, domain.SuggestedAugment{
			Name:         name,
			Count:        len(placements),
			AvgPlacement: util.Round2(util.MeanInt(placements)),
			Top4Rate:     util.Round2(float64(top4) / float64(len(placements)) * 100),
		})
	}

	sort.SliceStable(augments, func(i, j int) bool {
		if augments[i].AvgPlacement != augments[j].AvgPlacement {
			return augments[i].AvgPlacement < augments[j].AvgPlacement
		}
		return augments[i].Name < augments[j].Name
	})
	if len(augments) > constants.AggregationConfig.SuggestedAugCount {
		augments = augments[:constants.AggregationConfig.SuggestedAugCount]
	}
	return augments
}

// metaTags: 조합의 성격을 설명하는 태그를 뽑는다. 중복 적용 가능하다.
func metaTags(s *domain.CompositionStats, g *compGroup) []string {
	tags := make([]string, 0, 4)

	// 레벨 9 조합은 fast-8 단계도 거치므로 두 태그를 같이 받는다.
	level := avgLevel(g.participants)
	if level >= 8 {
		tags = append(tags, "fast-8")
	}
	if level >= 9 {
		tags = append(tags, "fast-9")
	}

	round := avgLastRound(g.participants)
	if round >= 25 {
		tags = append(tags, "late-game")
	} else if round <= 18 {
		tags = append(tags, "early-game")
	}

	if cost := avgUnitCost(s.CoreUnits); cost > 0 && cost <= 2 {
		tags = append(tags, "reroll")
	}

	if s.WinRate >= 20 {
		tags = append(tags, "high-winrate")
	}
	if s.Top4Rate >= 60 {
		tags = append(tags, "consistent")
	}
	return tags
}

// assignTiers: 최소 경기 수를 채운 조합만 백분위로 등급을 매긴다. 나머지는 C, 점수 0이다.
func (e *Engine) assignTiers(stats []domain.CompositionStats, groups map[string]*compGroup, minGames int) {
	type scored struct {
		index int
		score float64
	}

	eligible := make([]scored, 0, len(stats))
	for i := range stats {
		s := &stats[i]
		if s.TotalGames < minGames {
			s.Tier = domain.TierC
			s.Score = 0
			continue
		}
		score := (100-s.AvgPlacement*10)*0.5 + s.Top4Rate*0.3 + s.WinRate*0.2
		s.Score = util.Round2(score)
		eligible = append(eligible, scored{index: i, score: s.Score})
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].score != eligible[j].score {
			return eligible[i].score > eligible[j].score
		}
		return stats[eligible[i].index].CompHash < stats[eligible[j].index].CompHash
	})

	total := len(eligible)
	for rank, entry := range eligible {
		percentile := float64(rank) / float64(total)
		switch {
		case percentile < 0.10:
			stats[entry.index].Tier = domain.TierS
		case percentile < 0.30:
			stats[entry.index].Tier = domain.TierA
		case percentile < 0.65:
			stats[entry.index].Tier = domain.TierB
		default:
			stats[entry.index].Tier = domain.TierC
		}
	}
}

// buildSnapshot: C 등급을 제외한 조합 요약과 유닛별 가중 통계를 만든다.
func (e *Engine) buildSnapshot(stats []domain.CompositionStats, windowTotalGames int) *domain.MetaSnapshot {
	if len(stats) == 0 {
		return nil
	}

	comps := make([]domain.SnapshotComp, 0, len(stats))
	for i := range stats {
		s := &stats[i]
		if s.Tier == domain.TierC {
			continue
		}
		comps = append(comps, domain.SnapshotComp{
			CompHash:     s.CompHash,
			Name:         s.Name,
			Tier:         s.Tier,
			Score:        s.Score,
			TotalGames:   s.TotalGames,
			AvgPlacement: s.AvgPlacement,
			Top4Rate:     s.Top4Rate,
			WinRate:      s.WinRate,
			MetaTags:     s.MetaTags,
		})
	}

	sort.SliceStable(comps, func(i, j int) bool {
		if comps[i].Score != comps[j].Score {
			return comps[i].Score > comps[j].Score
		}
		return comps[i].CompHash < comps[j].CompHash
	})

	// 유닛별 가중 평균 등수와 픽률 (조합 경기 수 가중)
	type unitAccum struct {
		games       int
		weightedSum float64
	}
	unitStats := make(map[string]*unitAccum)
	for i := range stats {
		s := &stats[i]
		for _, unit := range s.CoreUnits {
			entry := unitStats[unit.Name]
			if entry == nil {
				entry = &unitAccum{}
				unitStats[unit.Name] = entry
			}
			entry.games += s.TotalGames
			entry.weightedSum += s.AvgPlacement * float64(s.TotalGames)
		}
	}

	units := make([]domain.UnitStat, 0, len(unitStats))
	for name, entry := range unitStats {
		if entry.games == 0 {
			continue
		}
		// 한 경기에는 8개의 참가 슬롯이 있으므로 분모는 슬롯 수 기준이다.
		pickRate := 0.0
		if windowTotalGames > 0 {
			pickRate = float64(entry.games) / float64(windowTotalGames*8) * 100
		}
		units = append(units, domain.UnitStat{
			Name:         name,
			Games:        entry.games,
			AvgPlacement: util.Round2(entry.weightedSum / float64(entry.games)),
			PickRate:     util.Round2(pickRate),
		})
	}
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Games != units[j].Games {
			return units[i].Games > units[j].Games
		}
		return units[i].Name < units[j].Name
	})

	// 패치/세트는 가장 많이 본 조합의 것을 따른다.
	patch := stats[0].Patch
	set := stats[0].SetNumber
	maxGames := stats[0].TotalGames
	for i := range stats {
		if stats[i].TotalGames > maxGames {
			maxGames = stats[i].TotalGames
			patch = stats[i].Patch
			set = stats[i].SetNumber
		}
	}

	return &domain.MetaSnapshot{
		Date:       e.now().UTC().Format("2006-01-02"),
		SetNumber:  set,
		Patch:      patch,
		TotalGames: windowTotalGames,
		Comps:      comps,
		UnitStats:  units,
	}
}
