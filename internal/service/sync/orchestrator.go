package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/kapu/tft-coach-go/internal/config"
	"github.com/kapu/tft-coach-go/internal/constants"
	"github.com/kapu/tft-coach-go/internal/domain"
	"github.com/kapu/tft-coach-go/internal/service/aggregation"
	"github.com/kapu/tft-coach-go/internal/service/coaching"
	"github.com/kapu/tft-coach-go/internal/service/riot"
	"github.com/kapu/tft-coach-go/internal/service/store"
	"github.com/kapu/tft-coach-go/pkg/errors"
)

// Mode: 한 번의 실행에서 수행할 작업 선택자
type Mode string

const (
	ModeTracked   Mode = "tracked"   // 추적 플레이어 매치 수집
	ModeLadder    Mode = "ladder"    // 사다리 상위권 매치 수집
	ModeAggregate Mode = "aggregate" // 집계만
	ModeAll       Mode = "all"       // 수집 + 집계
)

// ParseMode: 문자열을 Mode로 해석한다. 빈 값은 ModeAll이다.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeTracked, ModeLadder, ModeAggregate, ModeAll:
		return Mode(raw), nil
	case "":
		return ModeAll, nil
	default:
		return "", errors.NewValidationError("mode", fmt.Sprintf("unknown sync mode: %q", raw))
	}
}

// MatchSource: 오케스트레이터가 쓰는 Riot API 서브셋
type MatchSource interface {
	MatchIDsByPUUID(ctx context.Context, platform, puuid string, count int) ([]string, error)
	MatchesByIDs(ctx context.Context, platform string, matchIDs []string) (*riot.BatchResult, error)
	ChallengerLeague(ctx context.Context, platform string) (*riot.RawLeagueList, error)
}

// RunResult: 한 번의 실행 결과 요약. 부분 실패를 포함해 항상 돌려준다.
type RunResult struct {
	Mode            Mode                `json:"mode"`
	PlayersSynced   int                 `json:"players_synced"`
	MatchesFetched  int                 `json:"matches_fetched"`
	MatchesSaved    int                 `json:"matches_saved"`
	Aggregation     *aggregation.Result `json:"aggregation,omitempty"`
	Errors          []string            `json:"errors,omitempty"`
	BudgetExhausted bool                `json:"budget_exhausted,omitempty"`
	Duration        time.Duration       `json:"duration"`
}

// Orchestrator: 수집과 집계 사이클을 실행한다.
// 동시 실행은 직렬화되며, 실행당 벽시계 예산을 넘기면 새 작업을 멈추고 부분 결과를 낸다.
type Orchestrator struct {
	source MatchSource
	repo   *store.Repository
	engine *aggregation.Engine
	cfg    config.SyncConfig
	logger *slog.Logger

	runMu sync.Mutex
	now   func() time.Time
}

// NewOrchestrator: 새로운 오케스트레이터를 생성한다.
func NewOrchestrator(
	source MatchSource,
	repo *store.Repository,
	engine *aggregation.Engine,
	cfg config.SyncConfig,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		source: source,
		repo:   repo,
		engine: engine,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run: 모드에 따라 수집/집계 사이클을 실행한다.
// 인증 오류 외의 개별 실패는 Errors에 모으고 계속 진행한다.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (*RunResult, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	started := o.now()
	deadline := started.Add(constants.SyncConfig.RunBudget)
	result := &RunResult{Mode: mode}

	o.logger.Info("Sync run started", slog.String("mode", string(mode)))

	var fatal error
	switch mode {
	case ModeTracked:
		fatal = o.syncTracked(ctx, deadline, result)
	case ModeLadder:
		fatal = o.syncLadder(ctx, deadline, result)
	case ModeAggregate:
		o.runAggregation(ctx, result)
	case ModeAll:
		fatal = o.syncTracked(ctx, deadline, result)
		if fatal == nil {
			fatal = o.syncLadder(ctx, deadline, result)
		}
		if fatal == nil {
			o.runAggregation(ctx, result)
		}
	default:
		return nil, errors.NewValidationError("mode", fmt.Sprintf("unknown sync mode: %q", mode))
	}

	result.Duration = o.now().Sub(started)
	o.logger.Info("Sync run finished",
		slog.String("mode", string(mode)),
		slog.Int("players", result.PlayersSynced),
		slog.Int("matches_saved", result.MatchesSaved),
		slog.Int("errors", len(result.Errors)),
		slog.Bool("budget_exhausted", result.BudgetExhausted),
		slog.Duration("duration", result.Duration),
	)

	if fatal != nil {
		return result, fatal
	}
	return result, nil
}

// SyncOne: 단일 플레이어를 추적 대상으로 등록하고 즉시 매치를 수집한다.
// 온디맨드 등록 경로라서 실행 예산 검사 없이 바로 수행한다.
func (o *Orchestrator) SyncOne(ctx context.Context, player *domain.Player) (*RunResult, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	started := o.now()
	result := &RunResult{Mode: ModeTracked}

	player.Tracked = true
	if err := o.repo.UpsertPlayer(ctx, player); err != nil {
		return nil, err
	}

	saved, err := o.syncPlayer(ctx, player.Platform, player.PUUID, result)
	if err != nil {
		return result, err
	}
	result.PlayersSynced = 1
	if saved > 0 {
		if err := o.repo.MarkPlayerSynced(ctx, player.PUUID, o.now().UTC()); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("mark synced %s: %v", player.PUUID, err))
		}
	}
	result.Duration = o.now().Sub(started)
	return result, nil
}

func (o *Orchestrator) budgetExceeded(deadline time.Time) bool {
	return o.now().After(deadline)
}

// syncTracked: 추적 플레이어들의 신규 매치를 수집한다.
func (o *Orchestrator) syncTracked(ctx context.Context, deadline time.Time, result *RunResult) error {
	players, err := o.repo.TrackedPlayers(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("tracked players: %v", err))
		return nil
	}

	for i := range players {
		if o.budgetExceeded(deadline) {
			result.BudgetExhausted = true
			o.logger.Warn("Run budget exhausted, stopping tracked sync",
				slog.Int("remaining_players", len(players)-i))
			return nil
		}
		if err := ctx.Err(); err != nil {
			result.BudgetExhausted = true
			return nil
		}

		player := &players[i]
		saved, err := o.syncPlayer(ctx, player.Platform, player.PUUID, result)
		if err != nil {
			if errors.IsUnauthorized(err) {
				return err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("player %s: %v", player.PUUID, err))
			continue
		}

		result.PlayersSynced++
		if saved > 0 {
			if err := o.repo.MarkPlayerSynced(ctx, player.PUUID, o.now().UTC()); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("mark synced %s: %v", player.PUUID, err))
			}
		}
	}
	return nil
}

// syncPlayer: 한 플레이어의 신규 매치를 가져와 저장하고, 저장 건수를 돌려준다.
// 이미 저장된 매치는 상세 조회를 건너뛴다.
func (o *Orchestrator) syncPlayer(ctx context.Context, platform, puuid string, result *RunResult) (int, error) {
	matchIDs, err := o.source.MatchIDsByPUUID(ctx, platform, puuid, o.cfg.MatchesPerPlayer)
	if err != nil {
		return 0, err
	}
	if len(matchIDs) == 0 {
		return 0, nil
	}

	existing, err := o.repo.ExistingMatchIDs(ctx, matchIDs)
	if err != nil {
		return 0, err
	}

	newIDs := make([]string, 0, len(matchIDs))
	for _, id := range matchIDs {
		if !existing[id] {
			newIDs = append(newIDs, id)
		}
	}
	if len(newIDs) == 0 {
		return 0, nil
	}

	batch, err := o.source.MatchesByIDs(ctx, platform, newIDs)
	if err != nil {
		return 0, err
	}
	result.MatchesFetched += len(batch.Matches)
	for id, fetchErr := range batch.Failures {
		result.Errors = append(result.Errors, fmt.Sprintf("match %s: %v", id, fetchErr))
	}

	saved := 0
	for _, raw := range batch.Matches {
		match, participants, err := domain.NormalizeMatch(raw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("match %s: %v", raw.Metadata.MatchID, err))
			continue
		}

		// 행동 점수는 수집 시점에 한 번 계산한다.
		for i := range participants {
			coaching.ScoreParticipant(&participants[i])
		}

		inserted, err := o.repo.SaveMatch(ctx, match, participants)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("save %s: %v", match.MatchID, err))
			continue
		}
		if inserted {
			saved++
		}
	}

	result.MatchesSaved += saved
	return saved, nil
}

// syncLadder: 각 플랫폼의 챌린저 상위권 플레이어를 수집 대상으로 등록하고 매치를 수집한다.
// 리그 목록 조회는 플랫폼별로 병렬이고, 매치 수집은 레이트 리밋 때문에 순차다.
func (o *Orchestrator) syncLadder(ctx context.Context, deadline time.Time, result *RunResult) error {
	leagues := o.fetchLeagues(ctx)

	for _, platform := range o.cfg.LadderPlatforms {
		if o.budgetExceeded(deadline) {
			result.BudgetExhausted = true
			o.logger.Warn("Run budget exhausted, stopping ladder sync", slog.String("platform", platform))
			return nil
		}

		fetched := leagues[platform]
		if fetched.err != nil {
			if errors.IsUnauthorized(fetched.err) {
				return fetched.err
			}
			result.Errors = append(result.Errors, fmt.Sprintf("ladder %s: %v", platform, fetched.err))
			continue
		}
		league := fetched.league
		if league == nil || len(league.Entries) == 0 {
			continue
		}

		entries := make([]domain.LeagueEntry, len(league.Entries))
		copy(entries, league.Entries)
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].LeaguePoints > entries[j].LeaguePoints
		})
		if len(entries) > o.cfg.LadderMaxPlayers {
			entries = entries[:o.cfg.LadderMaxPlayers]
		}

		playersSynced := 0
		matchesSaved := 0
		for i := range entries {
			if o.budgetExceeded(deadline) {
				result.BudgetExhausted = true
				break
			}
			entry := &entries[i]
			if entry.PUUID == "" {
				continue
			}

			player := &domain.Player{
				PUUID:    entry.PUUID,
				Platform: platform,
				Tier:     league.Tier,
				Tracked:  false,
			}
			if err := o.repo.UpsertPlayer(ctx, player); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("ladder player %s: %v", entry.PUUID, err))
				continue
			}

			saved, err := o.syncPlayer(ctx, platform, entry.PUUID, result)
			if err != nil {
				if errors.IsUnauthorized(err) {
					return err
				}
				result.Errors = append(result.Errors, fmt.Sprintf("ladder player %s: %v", entry.PUUID, err))
				continue
			}
			playersSynced++
			matchesSaved += saved
		}

		result.PlayersSynced += playersSynced
		if err := o.repo.RecordLadderSync(ctx, league.Tier, platform, playersSynced, matchesSaved); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("ladder log %s: %v", platform, err))
		}

		if result.BudgetExhausted {
			return nil
		}
	}
	return nil
}

type fetchedLeague struct {
	league *riot.RawLeagueList
	err    error
}

// fetchLeagues: 설정된 모든 플랫폼의 챌린저 리그를 병렬로 가져온다.
func (o *Orchestrator) fetchLeagues(ctx context.Context) map[string]fetchedLeague {
	if len(o.cfg.LadderPlatforms) == 0 {
		return nil
	}
	results := make([]fetchedLeague, len(o.cfg.LadderPlatforms))

	p := pool.New().WithMaxGoroutines(len(o.cfg.LadderPlatforms))
	for i, platform := range o.cfg.LadderPlatforms {
		p.Go(func() {
			league, err := o.source.ChallengerLeague(ctx, platform)
			results[i] = fetchedLeague{league: league, err: err}
		})
	}
	p.Wait()

	leagues := make(map[string]fetchedLeague, len(results))
	for i, platform := range o.cfg.LadderPlatforms {
		leagues[platform] = results[i]
	}
	return leagues
}

// runAggregation: 집계를 실행하고 결과를 기록한다. 실패는 수집 오류와 분리해 기록한다.
func (o *Orchestrator) runAggregation(ctx context.Context, result *RunResult) {
	aggResult, err := o.engine.Run(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("aggregation: %v", err))
		return
	}
	result.Aggregation = aggResult
}
