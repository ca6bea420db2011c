package coaching

import (
	"fmt"
	"sort"

	"log/slog"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/util"
)

// Analyzer: 플레이어의 최근 참가 기록에서 요약 통계, 실수 패턴, 코칭 카드를 산출한다.
// 참가 기록은 최신 경기가 앞에 오는 순서로 받는다.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer: 새로운 Analyzer를 생성한다.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze: 분석 결과를 돌려준다. 참가 기록이 없으면 nil이다.
// compNames는 comp_hash → 표시 이름 매핑으로, 없으면 해시를 그대로 쓴다.
func (a *Analyzer) Analyze(puuid string, participations []domain.Participant, compNames map[string]string) *domain.PlayerAnalysis {
	if len(participations) == 0 {
		return nil
	}

	analysis := &domain.PlayerAnalysis{
		PUUID:  puuid,
		Window: len(participations),
	}

	analysis.Summary = a.buildSummary(participations)
	analysis.Scores = a.buildScores(participations)
	analysis.Placements = a.buildHistogram(participations)
	analysis.RecentForm = a.buildRecentForm(participations)
	analysis.Augments = a.augmentLeaderboard(participations)
	analysis.Traits = a.traitLeaderboard(participations)
	analysis.Comps = a.compPerformance(participations, compNames)
	analysis.ErrorPatterns = a.detectErrorPatterns(participations)
	analysis.CoachCards = a.buildCoachCards(analysis)

	a.logger.Debug("Player analysis built",
		slog.String("puuid", puuid),
		slog.Int("games", analysis.Summary.Games),
		slog.Int("patterns", len(analysis.ErrorPatterns)),
	)

	return analysis
}

func (a *Analyzer) buildSummary(participations []domain.Participant) domain.Summary {
	n := len(participations)
	placements := make([]int, 0, n)
	levels := make([]int, 0, n)
	golds := make([]int, 0, n)
	rounds := make([]int, 0, n)
	top4 := 0
	wins := 0

	for i := range participations {
		p := &participations[i]
		placements = append(placements, p.Placement)
		levels = append(levels, p.Level)
		golds = append(golds, p.GoldLeft)
		rounds = append(rounds, p.LastRound)
		if p.IsTop4() {
			top4++
		}
		if p.IsWin() {
			wins++
		}
	}

	return domain.Summary{
		Games:        n,
		AvgPlacement: util.Round2(util.MeanInt(placements)),
		Top4Rate:     util.Round2(float64(top4) / float64(n) * 100),
		WinRate:      util.Round2(float64(wins) / float64(n) * 100),
		AvgLevel:     util.Round2(util.MeanInt(levels)),
		AvgGoldLeft:  util.Round2(util.MeanInt(golds)),
		AvgLastRound: util.Round2(util.MeanInt(rounds)),
	}
}

func (a *Analyzer) buildScores(participations []domain.Participant) domain.Scores {
	tempo := make([]int, 0, len(participations))
	econ := make([]int, 0, len(participations))
	synergy := make([]int, 0, len(participations))
	for i := range participations {
		tempo = append(tempo, participations[i].TempoScore)
		econ = append(econ, participations[i].EconScore)
		synergy = append(synergy, participations[i].SynergyScore)
	}
	return domain.Scores{
		Tempo:   util.Round2(util.MeanInt(tempo)),
		Econ:    util.Round2(util.MeanInt(econ)),
		Synergy: util.Round2(util.MeanInt(synergy)),
	}
}

func (a *Analyzer) buildHistogram(participations []domain.Participant) []domain.PlacementBucket {
	counts := make(map[int]int, 8)
	for i := range participations {
		counts[participations[i].Placement]++
	}

	buckets := make([]domain.PlacementBucket, 0, 8)
	for rank := 1; rank <= 8; rank++ {
		buckets = append(buckets, domain.PlacementBucket{
			Placement: rank,
			Count:     counts[rank],
		})
	}
	return buckets
}

func (a *Analyzer) buildRecentForm(participations []domain.Participant) []int {
	form := make([]int, 0, len(participations))
	for i := range participations {
		form = append(form, participations[i].Placement)
	}
	return form
}

type leaderboardAccum struct {
	placements []int
	top4       int
}

func (a *Analyzer) augmentLeaderboard(participations []domain.Participant) []domain.AugmentStat {
	accum := make(map[string]*leaderboardAccum)
	for i := range participations {
		p := &participations[i]
		for _, augment := range p.Augments {
			entry := accum[augment]
			if entry == nil {
				entry = &leaderboardAccum{}
				accum[augment] = entry
			}
			entry.placements = append(entry.placements, p.Placement)
			if p.IsTop4() {
				entry.top4++
			}
		}
	}

	stats := make([]domain.AugmentStat, 0, len(accum))
	for name, entry := range accum {
		if len(entry.placements) < constants.CoachingConfig.MinLeaderboardSeen {
			continue
		}
		stats = append(stats, domain.AugmentStat{
			Name:         name,
			Count:        len(entry.placements),
			AvgPlacement: util.Round2(util.MeanInt(entry.placements)),
			Top4Rate:     util.Round2(float64(entry.top4) / float64(len(entry.placements)) * 100),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].AvgPlacement != stats[j].AvgPlacement {
			return stats[i].AvgPlacement < stats[j].AvgPlacement
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > constants.CoachingConfig.LeaderboardSize {
		stats = stats[:constants.CoachingConfig.LeaderboardSize]
	}
	return stats
}

func (a *Analyzer) traitLeaderboard(participations []domain.Participant) []domain.PlayedTrait {
	accum := make(map[string]*leaderboardAccum)
	for i := range participations {
		p := &participations[i]
		for _, trait := range p.Traits {
			// 브론즈 단발 활성은 잡음이라 실버 이상만 집계한다.
			if trait.Style < domain.TraitStyleSilver {
				continue
			}
			entry := accum[trait.Name]
			if entry == nil {
				entry = &leaderboardAccum{}
				accum[trait.Name] = entry
			}
			entry.placements = append(entry.placements, p.Placement)
		}
	}

	stats := make([]domain.PlayedTrait, 0, len(accum))
	for name, entry := range accum {
		if len(entry.placements) < constants.CoachingConfig.MinLeaderboardSeen {
			continue
		}
		stats = append(stats, domain.PlayedTrait{
			Name:         name,
			Count:        len(entry.placements),
			AvgPlacement: util.Round2(util.MeanInt(entry.placements)),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].AvgPlacement != stats[j].AvgPlacement {
			return stats[i].AvgPlacement < stats[j].AvgPlacement
		}
		return stats[i].Name < stats[j].Name
	})
	if len(stats) > constants.CoachingConfig.LeaderboardSize {
		stats = stats[:constants.CoachingConfig.LeaderboardSize]
	}
	return stats
}

func (a *Analyzer) compPerformance(participations []domain.Participant, compNames map[string]string) []domain.CompPerformance {
	accum := make(map[string]*leaderboardAccum)
	for i := range participations {
		p := &participations[i]
		if p.CompHash == "" {
			continue
		}
		entry := accum[p.CompHash]
		if entry == nil {
			entry = &leaderboardAccum{}
			accum[p.CompHash] = entry
		}
		entry.placements = append(entry.placements, p.Placement)
		if p.IsTop4() {
			entry.top4++
		}
	}

	perf := make([]domain.CompPerformance, 0, len(accum))
	for hash, entry := range accum {
		name := compNames[hash]
		if name == "" {
			name = hash
		}
		perf = append(perf, domain.CompPerformance{
			CompHash:     hash,
			Name:         name,
			Games:        len(entry.placements),
			AvgPlacement: util.Round2(util.MeanInt(entry.placements)),
			Top4Rate:     util.Round2(float64(entry.top4) / float64(len(entry.placements)) * 100),
		})
	}

	sort.SliceStable(perf, func(i, j int) bool {
		if perf[i].Games != perf[j].Games {
			return perf[i].Games > perf[j].Games
		}
		return perf[i].AvgPlacement < perf[j].AvgPlacement
	})
	return perf
}

const (
	severityHigh   = "high"
	severityMedium = "medium"
	severityLow    = "low"
)

// detectErrorPatterns: 네 가지 패턴을 독립적으로 평가해 해당하는 것을 모두 돌려준다.
func (a *Analyzer) detectErrorPatterns(participations []domain.Participant) []domain.ErrorPattern {
	patterns := make([]domain.ErrorPattern, 0, 4)

	earlyDeaths := 0
	goldWaste := 0
	lowSynergy := 0
	for i := range participations {
		p := &participations[i]
		if p.LastRound < 16 && p.Placement > 4 {
			earlyDeaths++
		}
		if p.GoldLeft > 10 && p.Placement > 4 {
			goldWaste++
		}
		if p.SynergyScore < 30 {
			lowSynergy++
		}
	}

	if earlyDeaths >= 3 {
		patterns = append(patterns, domain.ErrorPattern{
			Type:     domain.PatternEarlyElimination,
			Severity: severityHigh,
			Count:    earlyDeaths,
			Message:  fmt.Sprintf("최근 %d판에서 16라운드 전에 하위권으로 탈락했습니다. 초중반 보드 강화에 투자하세요.", earlyDeaths),
		})
	}
	if goldWaste >= 3 {
		patterns = append(patterns, domain.ErrorPattern{
			Type:     domain.PatternGoldWaste,
			Severity: severityMedium,
			Count:    goldWaste,
			Message:  fmt.Sprintf("%d판에서 10골드 이상을 남기고 하위권으로 탈락했습니다. 위기 라운드에는 골드를 아끼지 마세요.", goldWaste),
		})
	}

	// 최근 5판 연패 체크
	recent := participations
	if len(recent) > 5 {
		recent = recent[:5]
	}
	losses := 0
	for i := range recent {
		if recent[i].Placement >= 5 {
			losses++
		}
	}
	if losses >= 4 {
		patterns = append(patterns, domain.ErrorPattern{
			Type:     domain.PatternTiltStreak,
			Severity: severityHigh,
			Count:    losses,
			Message:  fmt.Sprintf("최근 5판 중 %d판이 5등 이하입니다. 잠시 휴식 후 다시 플레이하는 것을 권장합니다.", losses),
		})
	}

	if float64(lowSynergy) > float64(len(participations))*0.4 {
		patterns = append(patterns, domain.ErrorPattern{
			Type:     domain.PatternLowSynergy,
			Severity: severityMedium,
			Count:    lowSynergy,
			Message:  fmt.Sprintf("%d판에서 시너지 활성도가 낮았습니다. 특성 완성을 우선으로 덱을 구성해 보세요.", lowSynergy),
		})
	}

	return patterns
}

func severityRank(severity string) int {
	switch severity {
	case severityHigh:
		return 0
	case severityMedium:
		return 1
	default:
		return 2
	}
}

// buildCoachCards: 고정 3장의 코칭 카드를 만든다. (강점, 개선점, 실수 패턴)
func (a *Analyzer) buildCoachCards(analysis *domain.PlayerAnalysis) []domain.CoachCard {
	cards := make([]domain.CoachCard, 0, 3)

	// 1. 강점 카드: 성과 좋은 증강이 있으면 그것을, 없으면 순방률을 언급한다.
	strength := domain.CoachCard{Title: "강점", Priority: 3}
	if len(analysis.Augments) > 0 && analysis.Augments[0].AvgPlacement <= 4 {
		best := analysis.Augments[0]
		strength.Body = fmt.Sprintf("증강 '%s' 선택 시 평균 %.2f등으로 좋은 성과를 내고 있습니다. (%d회 사용)",
			best.Name, best.AvgPlacement, best.Count)
	} else {
		strength.Body = fmt.Sprintf("최근 %d판 순방률 %.1f%%를 기록 중입니다. 현재 플레이 스타일을 유지하세요.",
			analysis.Summary.Games, analysis.Summary.Top4Rate)
	}
	cards = append(cards, strength)

	// 2. 개선점 카드: 세 점수 중 평균이 가장 낮은 영역
	improvement := domain.CoachCard{Title: "개선점", Priority: 2}
	lowest := "tempo"
	lowestValue := analysis.Scores.Tempo
	if analysis.Scores.Econ < lowestValue {
		lowest = "econ"
		lowestValue = analysis.Scores.Econ
	}
	if analysis.Scores.Synergy < lowestValue {
		lowest = "synergy"
		lowestValue = analysis.Scores.Synergy
	}
	switch lowest {
	case "tempo":
		improvement.Body = fmt.Sprintf("템포 점수가 평균 %.1f점으로 가장 낮습니다. 레벨업 타이밍을 앞당기고 연패 구간을 줄여 보세요.", lowestValue)
	case "econ":
		improvement.Body = fmt.Sprintf("경제 점수가 평균 %.1f점으로 가장 낮습니다. 이자 관리와 올인 타이밍을 점검해 보세요.", lowestValue)
	default:
		improvement.Body = fmt.Sprintf("시너지 점수가 평균 %.1f점으로 가장 낮습니다. 특성 브레이크포인트를 맞추는 연습이 필요합니다.", lowestValue)
	}
	cards = append(cards, improvement)

	// 3. 실수 패턴 카드: 심각도가 가장 높은 패턴
	pattern := domain.CoachCard{Title: "반복 패턴", Priority: 1}
	if len(analysis.ErrorPatterns) > 0 {
		sorted := make([]domain.ErrorPattern, len(analysis.ErrorPatterns))
		copy(sorted, analysis.ErrorPatterns)
		sort.SliceStable(sorted, func(i, j int) bool {
			return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
		})
		pattern.Body = sorted[0].Message
	} else {
		pattern.Body = "반복되는 실수 패턴이 발견되지 않았습니다. 안정적인 플레이를 이어가고 있습니다."
	}
	cards = append(cards, pattern)

	return cards
}
