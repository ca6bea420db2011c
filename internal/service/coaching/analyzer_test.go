package coaching

import (
	"io"
	"log/slog"
	"testing"

	"github.com/kapu/tft-coach-go/internal/domain"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAnalyzeEmptyReturnsNil(t *testing.T) {
	if got := newTestAnalyzer().Analyze("p1", nil, nil); got != nil {
		t.Errorf("expected nil for empty participations")
	}
}

func TestAnalyzeSummary(t *testing.T) {
	participations := []domain.Participant{
		{Placement: 1, Level: 9, GoldLeft: 2, LastRound: 35, TempoScore: 100, EconScore: 100, SynergyScore: 80},
		{Placement: 5, Level: 8, GoldLeft: 10, LastRound: 28, TempoScore: 80, EconScore: 48, SynergyScore: 40},
		{Placement: 8, Level: 6, GoldLeft: 30, LastRound: 15, TempoScore: 40, EconScore: 0, SynergyScore: 20},
	}

	analysis := newTestAnalyzer().Analyze("p1", participations, nil)
	if analysis == nil {
		t.Fatal("analysis is nil")
	}

	if analysis.Summary.Games != 3 {
		t.Errorf("games = %d", analysis.Summary.Games)
	}
	// (1+5+8)/3 = 4.67
	if analysis.Summary.AvgPlacement != 4.67 {
		t.Errorf("avg placement = %v, want 4.67", analysis.Summary.AvgPlacement)
	}
	if analysis.Summary.Top4Rate != 33.33 {
		t.Errorf("top4 rate = %v, want 33.33", analysis.Summary.Top4Rate)
	}
	if analysis.Summary.WinRate != 33.33 {
		t.Errorf("win rate = %v, want 33.33", analysis.Summary.WinRate)
	}

	if analysis.Placements[0].Count != 1 || analysis.Placements[1].Count != 0 {
		t.Errorf("histogram = %+v", analysis.Placements)
	}
	if len(analysis.RecentForm) != 3 || analysis.RecentForm[0] != 1 {
		t.Errorf("recent form = %v", analysis.RecentForm)
	}
	if len(analysis.CoachCards) != 3 {
		t.Errorf("coach cards = %d, want 3", len(analysis.CoachCards))
	}
}

func TestAugmentLeaderboardMinSeen(t *testing.T) {
	participations := []domain.Participant{
		{Placement: 1, Augments: []string{"Good", "Once"}},
		{Placement: 2, Augments: []string{"Good"}},
		{Placement: 7, Augments: []string{"Bad"}},
		{Placement: 8, Augments: []string{"Bad"}},
	}

	analysis := newTestAnalyzer().Analyze("p1", participations, nil)
	if len(analysis.Augments) != 2 {
		t.Fatalf("augments = %+v, want 2 entries", analysis.Augments)
	}
	// 평균 등수 오름차순
	if analysis.Augments[0].Name != "Good" || analysis.Augments[0].AvgPlacement != 1.5 {
		t.Errorf("best augment = %+v", analysis.Augments[0])
	}
	for _, a := range analysis.Augments {
		if a.Name == "Once" {
			t.Errorf("single-use augment must be excluded")
		}
	}
}

func TestDetectTiltStreak(t *testing.T) {
	// 최근 5판 중 4판이 5등 이하
	participations := []domain.Participant{
		{Placement: 6}, {Placement: 7}, {Placement: 5}, {Placement: 2}, {Placement: 8},
		{Placement: 1}, {Placement: 1},
	}

	analysis := newTestAnalyzer().Analyze("p1", participations, nil)
	found := false
	for _, p := range analysis.ErrorPatterns {
		if p.Type == domain.PatternTiltStreak {
			found = true
			if p.Severity != "high" {
				t.Errorf("severity = %s", p.Severity)
			}
		}
	}
	if !found {
		t.Errorf("tilt streak not detected: %+v", analysis.ErrorPatterns)
	}
}

func TestDetectGoldWasteAndEarlyElimination(t *testing.T) {
	participations := []domain.Participant{
		{Placement: 7, GoldLeft: 25, LastRound: 14},
		{Placement: 6, GoldLeft: 18, LastRound: 15},
		{Placement: 8, GoldLeft: 30, LastRound: 12},
		{Placement: 1, GoldLeft: 0, LastRound: 38},
	}

	analysis := newTestAnalyzer().Analyze("p1", participations, nil)
	types := make(map[string]bool)
	for _, p := range analysis.ErrorPatterns {
		types[p.Type] = true
	}
	if !types[domain.PatternGoldWaste] {
		t.Errorf("gold waste not detected")
	}
	if !types[domain.PatternEarlyElimination] {
		t.Errorf("early elimination not detected")
	}
}

func TestDetectLowSynergy(t *testing.T) {
	participations := []domain.Participant{
		{Placement: 4, SynergyScore: 10},
		{Placement: 4, SynergyScore: 20},
		{Placement: 4, SynergyScore: 80},
		{Placement: 4, SynergyScore: 15},
		{Placement: 4, SynergyScore: 90},
	}

	// 5판 중 3판이 30 미만 → 60% > 40%
	analysis := newTestAnalyzer().Analyze("p1", participations, nil)
	found := false
	for _, p := range analysis.ErrorPatterns {
		if p.Type == domain.PatternLowSynergy {
			found = true
			if p.Severity != severityMedium {
				t.Errorf("low synergy severity = %s, want %s", p.Severity, severityMedium)
			}
		}
	}
	if !found {
		t.Errorf("low synergy not detected: %+v", analysis.ErrorPatterns)
	}
}

func TestTraitLeaderboardSilverAndAbove(t *testing.T) {
	traits := []domain.Trait{
		{Name: "Sniper", NumUnits: 4, Style: domain.TraitStyleGold},
		{Name: "Bruiser", NumUnits: 2, Style: domain.TraitStyleBronze},
	}
	participations := []domain.Participant{
		{Placement: 1, Traits: traits},
		{Placement: 3, Traits: traits},
	}

	analysis := newTestAnalyzer().Analyze("p1", participations, nil)
	if len(analysis.Traits) != 1 {
		t.Fatalf("traits = %+v, want Sniper only", analysis.Traits)
	}
	if analysis.Traits[0].Name != "Sniper" || analysis.Traits[0].Count != 2 {
		t.Errorf("trait = %+v", analysis.Traits[0])
	}
}

func TestCoachCardsHighestSeverityPattern(t *testing.T) {
	// gold_waste(medium) + tilt_streak(high) 동시 발생 시 카드에는 high가 실린다.
	participations := []domain.Participant{
		{Placement: 6, GoldLeft: 20, LastRound: 25},
		{Placement: 7, GoldLeft: 15, LastRound: 26},
		{Placement: 5, GoldLeft: 12, LastRound: 27},
		{Placement: 8, GoldLeft: 11, LastRound: 24},
		{Placement: 6, GoldLeft: 3, LastRound: 30},
	}

	analysis := newTestAnalyzer().Analyze("p1", participations, nil)
	var patternCard *domain.CoachCard
	for i := range analysis.CoachCards {
		if analysis.CoachCards[i].Title == "반복 패턴" {
			patternCard = &analysis.CoachCards[i]
		}
	}
	if patternCard == nil {
		t.Fatal("pattern card missing")
	}

	var tiltMessage string
	for _, p := range analysis.ErrorPatterns {
		if p.Type == domain.PatternTiltStreak {
			tiltMessage = p.Message
		}
	}
	if tiltMessage == "" {
		t.Fatalf("tilt streak expected in %+v", analysis.ErrorPatterns)
	}
	if patternCard.Body != tiltMessage {
		t.Errorf("card body = %q, want tilt message", patternCard.Body)
	}
}

func TestCompPerformanceUsesNames(t *testing.T) {
	participations := []domain.Participant{
		{Placement: 1, CompHash: "jinx_vi"},
		{Placement: 3, CompHash: "jinx_vi"},
		{Placement: 8, CompHash: "ahri_solo"},
		{Placement: 5},
	}
	names := map[string]string{"jinx_vi": "Sniper Star"}

	analysis := newTestAnalyzer().Analyze("p1", participations, names)
	if len(analysis.Comps) != 2 {
		t.Fatalf("comps = %+v", analysis.Comps)
	}
	if analysis.Comps[0].Name != "Sniper Star" || analysis.Comps[0].Games != 2 {
		t.Errorf("top comp = %+v", analysis.Comps[0])
	}
	// 이름 매핑이 없으면 해시를 그대로 쓴다.
	if analysis.Comps[1].Name != "ahri_solo" {
		t.Errorf("fallback name = %s", analysis.Comps[1].Name)
	}
}
