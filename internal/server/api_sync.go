package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kapu/tft-coach-go/internal/domain"
	syncsvc "github.com/kapu/tft-coach-go/internal/service/sync"
	"github.com/kapu/tft-coach-go/internal/util"
	apperrors "github.com/kapu/tft-coach-go/pkg/errors"
)

// SyncRequest: 온디맨드 플레이어 등록/수집 요청 바디
type SyncRequest struct {
	RiotID   string `json:"riot_id"`  // "이름#태그" 또는 puuid 중 하나는 필수
	PUUID    string `json:"puuid"`
	Platform string `json:"platform"` // 기본 euw1
}

// TriggerCron: 주기 수집 사이클을 즉시 실행합니다. cron 스케줄러 훅 용도입니다.
// Query params:
//   - mode: tracked | ladder | aggregate | all (기본 all)
func (h *APIHandler) TriggerCron(c *gin.Context) {
	mode, err := syncsvc.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	result, err := h.orchestrator.Run(c.Request.Context(), mode)
	if err != nil {
		h.logger.Error("Cron run failed",
			slog.String("mode", string(mode)),
			slog.Any("error", err))
		c.JSON(500, gin.H{
			"error":  "sync run failed",
			"result": result,
		})
		return
	}

	c.JSON(200, gin.H{
		"status": "ok",
		"result": result,
	})
}

// SyncPlayer: riot id 또는 puuid로 플레이어를 추적 대상으로 등록하고 즉시 수집합니다.
func (h *APIHandler) SyncPlayer(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	platform := util.TrimSpace(req.Platform)
	if platform == "" {
		platform = "euw1"
	}

	player, err := h.resolvePlayer(c.Request.Context(), platform, &req)
	if err != nil {
		if apperrors.IsValidation(err) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if apperrors.IsUnauthorized(err) {
			c.JSON(502, gin.H{"error": "riot api authentication failed"})
			return
		}
		h.logger.Error("Player resolve failed", slog.Any("error", err))
		c.JSON(500, gin.H{"error": "failed to resolve player"})
		return
	}
	if player == nil {
		c.JSON(404, gin.H{"error": "player not found"})
		return
	}

	result, err := h.orchestrator.SyncOne(c.Request.Context(), player)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			c.JSON(502, gin.H{"error": "riot api authentication failed"})
			return
		}
		h.logger.Error("On-demand sync failed",
			slog.String("puuid", player.PUUID),
			slog.Any("error", err))
		c.JSON(500, gin.H{
			"error":  "sync failed",
			"result": result,
		})
		return
	}

	c.JSON(200, gin.H{
		"status": "ok",
		"puuid":  player.PUUID,
		"result": result,
	})
}

// resolvePlayer: 요청 바디에서 플레이어를 식별한다. riot id가 있으면 계정 조회로
// puuid를 알아내고, 없으면 puuid를 그대로 쓴다. 못 찾으면 nil을 돌려준다.
func (h *APIHandler) resolvePlayer(ctx context.Context, platform string, req *SyncRequest) (*domain.Player, error) {
	if riotID := util.TrimSpace(req.RiotID); riotID != "" {
		gameName, tagLine, ok := strings.Cut(riotID, "#")
		if !ok {
			return nil, apperrors.NewValidationError("riot_id", "riot id must be formatted as name#tag")
		}

		account, err := h.riot.AccountByRiotID(ctx, platform, gameName, tagLine)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, nil
		}
		return &domain.Player{
			PUUID:    account.PUUID,
			GameName: account.GameName,
			TagLine:  account.TagLine,
			Platform: platform,
		}, nil
	}

	puuid := util.TrimSpace(req.PUUID)
	if puuid == "" {
		return nil, apperrors.NewValidationError("puuid", "riot_id or puuid is required")
	}
	return &domain.Player{PUUID: puuid, Platform: platform}, nil
}
