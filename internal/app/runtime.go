package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kapu/tft-coach-go/internal/config"
	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/health"
	"github.com/kapu/tft-coach-go/internal/service/cache"
	"github.com/kapu/tft-coach-go/internal/service/database"
	syncsvc "github.com/kapu/tft-coach-go/internal/service/sync"
)

// Runtime 는 타입이다.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger

	Cache     *cache.Service
	Postgres  *database.PostgresService
	Scheduler *syncsvc.Scheduler

	APIAddr   string
	APIServer *http.Server

	cleanup func()
}

// Close - 런타임 리소스 정리 (DB, 캐시 연결 해제)
func (r *Runtime) Close() {
	if r != nil && r.cleanup != nil {
		r.cleanup()
	}
}

// BuildRuntime 는 동작을 수행한다.
func BuildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	health.Init(cfg.Version)

	cacheService, cleanupCache, err := ProvideCacheService(cfg, logger)
	if err != nil {
		return nil, err
	}

	postgresService, cleanupDB, err := ProvidePostgresService(cfg, logger)
	if err != nil {
		cleanupCache()
		return nil, err
	}

	repo, err := ProvideRepository(ctx, postgresService, logger)
	if err != nil {
		cleanupDB()
		cleanupCache()
		return nil, err
	}

	riotService := ProvideRiotService(cfg, cacheService, logger)
	engine := ProvideEngine(repo, logger)
	orchestrator := ProvideOrchestrator(riotService, repo, engine, cfg, logger)
	apiHandler := ProvideAPIHandler(riotService, repo, orchestrator, logger)

	router, err := ProvideAPIRouter(ctx, cfg, logger, apiHandler)
	if err != nil {
		cleanupDB()
		cleanupCache()
		return nil, err
	}

	runtime := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Cache:    cacheService,
		Postgres: postgresService,
		APIAddr:  ProvideAPIAddr(cfg),
		cleanup: func() {
			cleanupDB()
			cleanupCache()
		},
	}
	runtime.APIServer = ProvideAPIServer(runtime.APIAddr, router)

	if cfg.Sync.Enabled {
		runtime.Scheduler = syncsvc.NewScheduler(orchestrator, cfg.Sync.Interval, logger)
	}

	return runtime, nil
}

// StartAPIServer 는 동작을 수행한다.
func (r *Runtime) StartAPIServer(errCh chan<- error) {
	if r == nil || r.APIServer == nil {
		return
	}

	go func() {
		if err := r.APIServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if errCh != nil {
				errCh <- fmt.Errorf("HTTP server error: %w", err)
				return
			}
			if r.Logger != nil {
				r.Logger.Error("HTTP server error", slog.Any("error", err))
			}
		}
	}()
}

// Start 는 동작을 수행한다.
func (r *Runtime) Start(ctx context.Context, errCh chan<- error) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if r.Scheduler != nil {
		r.Scheduler.Start(ctx)
		if r.Logger != nil {
			r.Logger.Info("Sync scheduler started",
				slog.Duration("interval", r.Config.Sync.Interval))
		}
	}

	r.StartAPIServer(errCh)
	if r.Logger != nil && r.APIAddr != "" {
		r.Logger.Info("API HTTP server started", slog.String("addr", r.APIAddr))
	}
}

// Shutdown 는 동작을 수행한다.
func (r *Runtime) Shutdown(ctx context.Context) {
	if r == nil {
		return
	}

	if r.Scheduler != nil {
		r.Scheduler.Stop()
		if r.Logger != nil {
			r.Logger.Info("Sync scheduler stopped")
		}
	}

	if r.APIServer != nil {
		if err := r.APIServer.Shutdown(ctx); err != nil {
			if r.Logger != nil {
				r.Logger.Error("HTTP server shutdown error", slog.Any("error", err))
			}
		}
	}
}

// Run 는 동작을 수행한다.
func (r *Runtime) Run() {
	if r == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	r.Start(ctx, errCh)
	if r.Logger != nil {
		r.Logger.Info("Coach service started, waiting for signals...")
	}

	select {
	case sig := <-sigCh:
		if r.Logger != nil {
			r.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		}
	case err := <-errCh:
		if r.Logger != nil {
			r.Logger.Error("Server error", slog.Any("error", err))
		}
	}

	if r.Logger != nil {
		r.Logger.Info("Shutting down gracefully...")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.AppTimeout.Shutdown)
	defer shutdownCancel()

	r.Shutdown(shutdownCtx)

	if r.Logger != nil {
		r.Logger.Info("Shutdown complete")
	}
}
