package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kapu/tft-coach-go/internal/adapter"
	"github.com/kapu/tft-coach-go/internal/config"
	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/server"
	"github.com/kapu/tft-coach-go/internal/service/aggregation"
	"github.com/kapu/tft-coach-go/internal/service/cache"
	"github.com/kapu/tft-coach-go/internal/service/coaching"
	"github.com/kapu/tft-coach-go/internal/service/composition"
	"github.com/kapu/tft-coach-go/internal/service/database"
	"github.com/kapu/tft-coach-go/internal/service/riot"
	"github.com/kapu/tft-coach-go/internal/service/store"
	syncsvc "github.com/kapu/tft-coach-go/internal/service/sync"
	"github.com/kapu/tft-coach-go/internal/service/system"
)

// ProvideCacheService: Valkey 캐시 서비스를 생성합니다. 연결 실패는 에러로 돌려준다.
func ProvideCacheService(cfg *config.Config, logger *slog.Logger) (*cache.Service, func(), error) {
	service, err := cache.NewCacheService(cache.Config{
		Host:     cfg.Valkey.Host,
		Port:     cfg.Valkey.Port,
		Password: cfg.Valkey.Password,
		DB:       cfg.Valkey.DB,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init valkey cache: %w", err)
	}

	cleanup := func() {
		if err := service.Close(); err != nil {
			logger.Warn("Cache close failed", slog.Any("error", err))
		}
	}
	return service, cleanup, nil
}

// ProvidePostgresService: PostgreSQL 연결을 수립합니다.
func ProvidePostgresService(cfg *config.Config, logger *slog.Logger) (*database.PostgresService, func(), error) {
	service, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	cleanup := func() {
		if err := service.Close(); err != nil {
			logger.Warn("Postgres close failed", slog.Any("error", err))
		}
	}
	return service, cleanup, nil
}

// ProvideRepository: 저장소를 생성하고 스키마를 마이그레이션합니다.
func ProvideRepository(ctx context.Context, postgres *database.PostgresService, logger *slog.Logger) (*store.Repository, error) {
	repo := store.NewRepository(postgres.GetGormDB(), logger)
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return repo, nil
}

// ProvideRiotService: 레이트 리밋과 응답 캐시가 적용된 Riot API 서비스를 생성합니다.
func ProvideRiotService(cfg *config.Config, cacheService *cache.Service, logger *slog.Logger) *riot.Service {
	var responseCache riot.ResponseCache
	if cacheService != nil {
		responseCache = cacheService
	}
	client := riot.NewAPIClient(nil, cfg.Riot.APIKey, responseCache, logger)
	return riot.NewService(client, logger)
}

// ProvideOrchestrator: 수집 파이프라인 구성요소를 묶어 오케스트레이터를 생성합니다.
func ProvideOrchestrator(
	riotSvc *riot.Service,
	repo *store.Repository,
	engine *aggregation.Engine,
	cfg *config.Config,
	logger *slog.Logger,
) *syncsvc.Orchestrator {
	return syncsvc.NewOrchestrator(riotSvc, repo, engine, cfg.Sync, logger)
}

// ProvideAPIHandler: HTTP 핸들러를 생성합니다.
func ProvideAPIHandler(
	riotSvc *riot.Service,
	repo *store.Repository,
	orchestrator *syncsvc.Orchestrator,
	logger *slog.Logger,
) *server.APIHandler {
	return server.NewAPIHandler(
		riotSvc,
		repo,
		coaching.NewAnalyzer(logger),
		orchestrator,
		adapter.NewReportFormatter(),
		system.NewCollector(),
		logger,
	)
}

// ProvideEngine: 메타 집계 엔진을 생성합니다.
func ProvideEngine(repo *store.Repository, logger *slog.Logger) *aggregation.Engine {
	return aggregation.NewEngine(repo, composition.NewDetector(), logger)
}

// ProvideAPIAddr: API 서버가 리슨할 주소를 반환합니다.
func ProvideAPIAddr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}

// ProvideAPIServer: API용 HTTP 서버 인스턴스를 생성합니다.
// H2C(HTTP/2 Cleartext)를 기본으로 사용하여 멀티플렉싱과 헤더 압축 이점을 제공한다.
func ProvideAPIServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           server.WrapH2C(handler),
		ReadHeaderTimeout: constants.ServerTimeout.ReadHeader,
		IdleTimeout:       constants.ServerTimeout.Idle,
	}
}
