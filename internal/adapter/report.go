package adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/util"
)

// ReportFormatter: 분석 결과를 사용자에게 보여줄 텍스트 보고서로 변환하는 포맷터
type ReportFormatter struct {
	maxComps int
}

// NewReportFormatter: 새로운 ReportFormatter 인스턴스를 생성한다.
func NewReportFormatter() *ReportFormatter {
	return &ReportFormatter{maxComps: 3}
}

// FormatError: 에러 메시지를 사용자 친화적인 포맷으로 변환한다.
func (f *ReportFormatter) FormatError(message string) string {
	return ErrorMessage(message)
}

// PlayerNotFound: 플레이어를 찾을 수 없을 때의 에러 메시지를 생성한다.
func (f *ReportFormatter) PlayerNotFound(riotID string) string {
	return f.FormatError(fmt.Sprintf("'%s' 플레이어를 찾을 수 없습니다.", riotID))
}

// NoRecentGames: 분석할 경기가 없을 때의 메시지를 생성한다.
func (f *ReportFormatter) NoRecentGames(riotID string) string {
	return fmt.Sprintf("%s %s님의 최근 경기 기록이 없습니다.", DefaultEmoji.Info, riotID)
}

// PlayerReport: 플레이어 분석 결과 전체를 보고서 문자열로 변환한다.
func (f *ReportFormatter) PlayerReport(riotID string, rank *domain.Rank, analysis *domain.PlayerAnalysis) string {
	if analysis == nil {
		return f.NoRecentGames(riotID)
	}

	var sb strings.Builder
	sb.WriteString(formatReportHeader(riotID, rank, analysis))
	sb.WriteString(formatReportSummary(&analysis.Summary))
	sb.WriteString(formatReportScores(&analysis.Scores))
	sb.WriteString(formatReportCards(analysis.CoachCards))
	sb.WriteString(f.formatReportComps(analysis.Comps))
	sb.WriteString(formatReportForm(analysis.RecentForm))
	return strings.TrimRight(sb.String(), "\n")
}

// 헤더 섹션 포맷팅
func formatReportHeader(riotID string, rank *domain.Rank, analysis *domain.PlayerAnalysis) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s 분석 리포트 (최근 %d경기)\n", DefaultEmoji.Stats, riotID, analysis.Window))
	if rank != nil && rank.Tier != "" {
		sb.WriteString(fmt.Sprintf("%s %s %s · %dLP\n", DefaultEmoji.Rank, rank.Tier, rank.Division, rank.LeaguePoints))
	}
	return sb.String()
}

// 요약 섹션 포맷팅
func formatReportSummary(summary *domain.Summary) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n평균 순위 %.2f위\n", summary.AvgPlacement))
	sb.WriteString(fmt.Sprintf("Top4 %.1f%% · 1위 %.1f%%\n", summary.Top4Rate, summary.WinRate))
	sb.WriteString(fmt.Sprintf("평균 레벨 %.1f · 평균 %.0f라운드\n", summary.AvgLevel, summary.AvgLastRound))
	return sb.String()
}

// 행동 점수 섹션 포맷팅
func formatReportScores(scores *domain.Scores) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s 플레이 점수\n", DefaultEmoji.Data))
	sb.WriteString(fmt.Sprintf("- 템포 %.0f점\n", scores.Tempo))
	sb.WriteString(fmt.Sprintf("- 골드 운영 %.0f점\n", scores.Econ))
	sb.WriteString(fmt.Sprintf("- 시너지 %.0f점\n", scores.Synergy))
	return sb.String()
}

// 코칭 카드 섹션 포맷팅. 우선순위 내림차순으로 정렬한다.
func formatReportCards(cards []domain.CoachCard) string {
	if len(cards) == 0 {
		return ""
	}

	sorted := make([]domain.CoachCard, len(cards))
	copy(sorted, cards)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s 코칭\n", DefaultEmoji.Hint))
	for _, card := range sorted {
		body := util.TrimSpace(card.Body)
		if body == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("[%s] %s\n", card.Title, body))
	}
	return sb.String()
}

// 주력 조합 섹션 포맷팅
func (f *ReportFormatter) formatReportComps(comps []domain.CompPerformance) string {
	if len(comps) == 0 {
		return ""
	}
	shown := comps
	if len(shown) > f.maxComps {
		shown = shown[:f.maxComps]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s 주력 조합\n", DefaultEmoji.Comp))
	for _, comp := range shown {
		sb.WriteString(fmt.Sprintf("- %s: %d경기, 평균 %.2f위\n", comp.Name, comp.Games, comp.AvgPlacement))
	}
	return sb.String()
}

// 최근 폼 섹션 포맷팅. 최신 경기가 앞에 온다.
func formatReportForm(form []int) string {
	if len(form) == 0 {
		return ""
	}

	parts := make([]string, len(form))
	for i, placement := range form {
		parts[i] = fmt.Sprintf("%d", placement)
	}
	return fmt.Sprintf("\n최근 폼: %s\n", strings.Join(parts, " → "))
}
