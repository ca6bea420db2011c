package server

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/service/riot"
	"github.com/kapu/tft-coach-go/internal/service/store"
	"github.com/kapu/tft-coach-go/internal/util"
)

// ReportResponse: 플레이어 분석 리포트 API 응답 구조체
type ReportResponse struct {
	Status   string                 `json:"status"`
	RiotID   string                 `json:"riot_id,omitempty"`
	Rank     *domain.Rank           `json:"rank,omitempty"`
	Analysis *domain.PlayerAnalysis `json:"analysis,omitempty"`
	Timeline []int                  `json:"timeline,omitempty"` // 오래된 경기부터
	Report   string                 `json:"report,omitempty"`   // 전송용 텍스트 렌더링
}

// GetPlayerReport: 플레이어의 최근 경기를 분석한 코칭 리포트를 반환합니다.
// Query params:
//   - platform: 플랫폼 라우팅 값 (기본 euw1)
//   - window: 분석할 경기 수 (기본 20)
func (h *APIHandler) GetPlayerReport(c *gin.Context) {
	puuid := util.TrimSpace(c.Param("puuid"))
	if puuid == "" {
		c.JSON(400, gin.H{"error": "puuid is required"})
		return
	}

	platform := c.DefaultQuery("platform", "euw1")
	window := constants.CoachingConfig.DefaultWindow
	if raw := c.Query("window"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			c.JSON(400, gin.H{"error": "window must be a positive integer"})
			return
		}
		window = parsed
	}

	ctx := c.Request.Context()
	var (
		games   []store.PlayerGame
		player  *domain.Player
		entries []domain.LeagueEntry
	)

	// 저장된 경기, 플레이어 레코드, 현재 랭크를 병렬로 조회한다.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = h.repo.RecentGames(gctx, puuid, window)
		return err
	})
	g.Go(func() error {
		var err error
		player, err = h.repo.PlayerByPUUID(gctx, puuid)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = h.riot.LeagueEntriesByPUUID(gctx, platform, puuid)
		if err != nil {
			// 랭크는 부가 정보라서 조회 실패가 리포트를 막지 않는다.
			h.logger.Warn("Rank lookup failed",
				slog.String("puuid", puuid),
				slog.Any("error", err))
			entries = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("Report data lookup failed",
			slog.String("puuid", puuid),
			slog.Any("error", err))
		c.JSON(500, gin.H{"error": "failed to load player data"})
		return
	}

	riotID := riotIDOf(player, puuid)
	rank := riot.RankFromEntries(entries)

	if len(games) == 0 {
		c.JSON(404, ReportResponse{
			Status: "no_games",
			RiotID: riotID,
			Rank:   rank,
			Report: h.formatter.NoRecentGames(riotID),
		})
		return
	}

	participations := make([]domain.Participant, 0, len(games))
	hashes := make([]string, 0, len(games))
	for i := range games {
		participations = append(participations, games[i].Participant)
		if hash := games[i].Participant.CompHash; hash != "" {
			hashes = append(hashes, hash)
		}
	}

	compNames := make(map[string]string)
	if stats, err := h.repo.CompStatsByHashes(ctx, hashes); err != nil {
		h.logger.Warn("Comp name lookup failed", slog.Any("error", err))
	} else {
		for hash, stat := range stats {
			compNames[hash] = stat.Name
		}
	}

	analysis := h.analyzer.Analyze(puuid, participations, compNames)
	if analysis == nil {
		c.JSON(404, ReportResponse{
			Status: "no_games",
			RiotID: riotID,
			Report: h.formatter.NoRecentGames(riotID),
		})
		return
	}

	c.JSON(200, ReportResponse{
		Status:   "ok",
		RiotID:   riotID,
		Rank:     rank,
		Analysis: analysis,
		Timeline: reverseInts(analysis.RecentForm),
		Report:   h.formatter.PlayerReport(riotID, rank, analysis),
	})
}

// riotIDOf: 저장된 플레이어 이름이 있으면 쓰고, 없으면 puuid 축약형을 쓴다.
func riotIDOf(player *domain.Player, puuid string) string {
	if player != nil && player.GameName != "" {
		return player.GameName + "#" + player.TagLine
	}
	if len(puuid) > 8 {
		return puuid[:8]
	}
	return puuid
}

func reverseInts(values []int) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}

func parsePositiveInt(raw string) (int, error) {
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, strconv.ErrRange
	}
	return parsed, nil
}
