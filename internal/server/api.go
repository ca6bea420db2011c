package server

import (
	"log/slog"
	"time"

	"github.com/kapu/tft-coach-go/internal/adapter"
	"github.com/kapu/tft-coach-go/internal/service/coaching"
	"github.com/kapu/tft-coach-go/internal/service/riot"
	"github.com/kapu/tft-coach-go/internal/service/store"
	syncsvc "github.com/kapu/tft-coach-go/internal/service/sync"
	"github.com/kapu/tft-coach-go/internal/service/system"
)

// APIHandler: 코칭 API 요청을 처리하는 핸들러입니다.
// 핸들러 메서드는 도메인별 파일로 분리됨:
//   - api_report.go: 플레이어 분석 리포트
//   - api_meta.go: 메타 조합/스냅샷 조회
//   - api_sync.go: 수집 트리거 (cron + 온디맨드)
type APIHandler struct {
	riot         *riot.Service
	repo         *store.Repository
	analyzer     *coaching.Analyzer
	orchestrator *syncsvc.Orchestrator
	formatter    *adapter.ReportFormatter
	systemStats  *system.Collector
	logger       *slog.Logger
	startTime    time.Time
}

// NewAPIHandler: 새로운 API 핸들러를 생성합니다.
func NewAPIHandler(
	riotSvc *riot.Service,
	repo *store.Repository,
	analyzer *coaching.Analyzer,
	orchestrator *syncsvc.Orchestrator,
	formatter *adapter.ReportFormatter,
	systemSvc *system.Collector,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		riot:         riotSvc,
		repo:         repo,
		analyzer:     analyzer,
		orchestrator: orchestrator,
		formatter:    formatter,
		systemStats:  systemSvc,
		logger:       logger,
		startTime:    time.Now(),
	}
}
