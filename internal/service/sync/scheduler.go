package sync

import (
	"context"
	"sync"
	"time"

	"log/slog"
)

// Scheduler: 수집+집계 사이클을 주기적으로 실행하는 스케줄러
type Scheduler struct {
	orchestrator *Orchestrator
	interval     time.Duration
	logger       *slog.Logger

	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler: 주기 실행 스케줄러를 생성한다.
func NewScheduler(orchestrator *Orchestrator, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Start: 주기 실행을 시작한다. 첫 실행은 interval 경과 후에 일어난다.
func (s *Scheduler) Start(ctx context.Context) {
	s.ticker = time.NewTicker(s.interval)
	s.logger.Info("Sync scheduler started", slog.Duration("interval", s.interval))

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runOnce(ctx)
			case <-s.stopCh:
				s.logger.Info("Sync scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Sync scheduler context canceled")
				return
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.orchestrator.Run(ctx, ModeAll)
	if err != nil {
		s.logger.Error("Scheduled sync run failed", slog.Any("error", err))
		return
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("Scheduled sync run finished with partial failures",
			slog.Int("errors", len(result.Errors)))
	}
}

// Stop: 스케줄러를 중지한다. 여러 번 호출해도 안전하다.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
	})
}
