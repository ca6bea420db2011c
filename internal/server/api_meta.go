package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/kapu/tft-coach-go/internal/domain"
)

// MetaCompsResponse: 메타 조합 목록 API 응답 구조체
type MetaCompsResponse struct {
	Status string                   `json:"status"`
	Count  int                      `json:"count"`
	Comps  []domain.CompositionStats `json:"comps"`
}

// GetMetaComps: 집계된 조합 통계 전체를 점수 내림차순으로 반환합니다.
// Query params:
//   - tier: 특정 티어(S/A/B/C)만 필터링 (선택)
func (h *APIHandler) GetMetaComps(c *gin.Context) {
	stats, err := h.repo.ListCompStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Comp stats lookup failed", slog.Any("error", err))
		c.JSON(500, gin.H{"error": "failed to load comp stats"})
		return
	}

	if tier := c.Query("tier"); tier != "" {
		filtered := stats[:0]
		for _, stat := range stats {
			if string(stat.Tier) == tier {
				filtered = append(filtered, stat)
			}
		}
		stats = filtered
	}

	c.JSON(200, MetaCompsResponse{
		Status: "ok",
		Count:  len(stats),
		Comps:  stats,
	})
}

// GetMetaSnapshot: 가장 최근의 메타 스냅샷을 반환합니다.
func (h *APIHandler) GetMetaSnapshot(c *gin.Context) {
	snapshot, err := h.repo.LatestSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("Snapshot lookup failed", slog.Any("error", err))
		c.JSON(500, gin.H{"error": "failed to load snapshot"})
		return
	}
	if snapshot == nil {
		c.JSON(404, gin.H{"error": "no snapshot available"})
		return
	}

	c.JSON(200, gin.H{
		"status":   "ok",
		"snapshot": snapshot,
	})
}
