package adapter

import (
	"strings"
	"testing"

	"github.com/kapu/tft-coach-go/internal/domain"
)

func sampleAnalysis() *domain.PlayerAnalysis {
	return &domain.PlayerAnalysis{
		PUUID:  "p1",
		Window: 20,
		Summary: domain.Summary{
			Games:        20,
			AvgPlacement: 4.15,
			Top4Rate:     55,
			WinRate:      15,
			AvgLevel:     8.2,
			AvgLastRound: 29,
		},
		Scores:     domain.Scores{Tempo: 78, Econ: 64, Synergy: 51},
		RecentForm: []int{1, 4, 7},
		Comps: []domain.CompPerformance{
			{Name: "Sniper Star", Games: 6, AvgPlacement: 3.5},
			{Name: "Flexible", Games: 4, AvgPlacement: 4.25},
		},
		CoachCards: []domain.CoachCard{
			{Title: "반복 패턴", Body: "연속 하위권이 잦습니다.", Priority: 1},
			{Title: "강점", Body: "Top4 비율이 안정적입니다.", Priority: 3},
			{Title: "개선점", Body: "골드 운영 점수가 낮습니다.", Priority: 2},
		},
	}
}

func TestPlayerReportSections(t *testing.T) {
	f := NewReportFormatter()
	rank := &domain.Rank{Tier: "DIAMOND", Division: "II", LeaguePoints: 45}

	report := f.PlayerReport("Hide#KR1", rank, sampleAnalysis())

	for _, want := range []string{
		"Hide#KR1 분석 리포트 (최근 20경기)",
		"DIAMOND II · 45LP",
		"평균 순위 4.15위",
		"Top4 55.0% · 1위 15.0%",
		"템포 78점",
		"[강점] Top4 비율이 안정적입니다.",
		"Sniper Star: 6경기, 평균 3.50위",
		"최근 폼: 1 → 4 → 7",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}

	// 카드는 우선순위 높은 것이 먼저 나와야 한다.
	if strings.Index(report, "[강점]") > strings.Index(report, "[개선점]") {
		t.Error("cards not sorted by priority")
	}
	if strings.HasSuffix(report, "\n") {
		t.Error("report must not end with newline")
	}
}

func TestPlayerReportNilAnalysis(t *testing.T) {
	f := NewReportFormatter()
	got := f.PlayerReport("Hide#KR1", nil, nil)
	if !strings.Contains(got, "최근 경기 기록이 없습니다") {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestPlayerReportCapsComps(t *testing.T) {
	analysis := sampleAnalysis()
	analysis.Comps = append(analysis.Comps,
		domain.CompPerformance{Name: "Third", Games: 3, AvgPlacement: 5},
		domain.CompPerformance{Name: "Fourth", Games: 2, AvgPlacement: 6},
	)

	report := NewReportFormatter().PlayerReport("Hide#KR1", nil, analysis)
	if strings.Contains(report, "Fourth") {
		t.Error("comps not capped at 3")
	}
	if !strings.Contains(report, "Third") {
		t.Error("third comp missing")
	}
}

func TestPlayerNotFound(t *testing.T) {
	got := NewReportFormatter().PlayerNotFound("Nobody#KR1")
	if !strings.Contains(got, "찾을 수 없습니다") {
		t.Errorf("unexpected message: %s", got)
	}
}
