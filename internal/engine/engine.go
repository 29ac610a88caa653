// Package engine implements the staking orchestration loop: harvesting
// excess stake above the root floor, fanning it out across subnets, and
// running the fixed-schedule staking cycle with restart recovery.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcjkula/bittensor-scripts/internal/gateway"
	"github.com/mcjkula/bittensor-scripts/internal/history"
	"github.com/mcjkula/bittensor-scripts/internal/model"
	"github.com/mcjkula/bittensor-scripts/internal/recorder"
	"github.com/mcjkula/bittensor-scripts/internal/schedule"
)

const (
	tickInterval          = 1 * time.Second
	dividendCheckInterval = 60 * time.Second
	settleDelay           = 3 * time.Second
	coolDown              = 15 * time.Second
	maxAttempts           = 3
	backoffInitial        = 2 * time.Second
	backoffCap            = 30 * time.Second
	errorBackoff          = 10 * time.Second
)

// Params wires an Engine. Gateway, Store and Ledger are required;
// Approver defaults to AutoApprover and Recorder to a no-op.
type Params struct {
	Gateway  gateway.Client
	Store    schedule.Store
	Recorder recorder.Recorder
	Ledger   *history.Ledger
	Approver Approver
	Logger   zerolog.Logger

	Coldkey           string
	RootHotkey        string
	Subnets           []model.SubnetConfig
	MinRootStake      float64
	MinStakeThreshold float64

	// SeedImmediate makes a first run (no persisted checkpoint) immediately
	// due instead of waiting for the next 6-hour boundary.
	SeedImmediate bool
}

// Engine owns the orchestration state: schedule checkpoints, the dividend
// pacing clock and the published snapshot. All cycle logic runs on the
// single Run goroutine; only Snapshot is read concurrently.
type Engine struct {
	gw       gateway.Client
	store    schedule.Store
	rec      recorder.Recorder
	ledger   *history.Ledger
	approver Approver
	log      zerolog.Logger

	coldkey       string
	root          model.Allocation
	subnets       []model.SubnetConfig
	floor         float64
	threshold     float64
	totalRequired float64

	mu   sync.Mutex
	snap model.Snapshot

	lastDivCheck time.Time
	nextStaking  time.Time

	// Injected for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an Engine and restores (or seeds) the schedule checkpoint.
// A persisted checkpoint in the past means cycles were missed while the
// process was down; the cycle is left due and a recovery event is recorded.
func New(p Params) (*Engine, error) {
	if p.Gateway == nil {
		return nil, fmt.Errorf("engine: gateway is required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("engine: schedule store is required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("engine: history ledger is required")
	}
	if len(p.Subnets) == 0 {
		return nil, fmt.Errorf("engine: at least one subnet is required")
	}
	if p.Approver == nil {
		p.Approver = AutoApprover{}
	}
	if p.Recorder == nil {
		p.Recorder = recorder.NewNoopRecorder()
	}

	e := &Engine{
		gw:            p.Gateway,
		store:         p.Store,
		rec:           p.Recorder,
		ledger:        p.Ledger,
		approver:      p.Approver,
		log:           p.Logger,
		coldkey:       p.Coldkey,
		root:          model.Allocation{NetUID: model.RootNetUID, Validator: p.RootHotkey},
		subnets:       p.Subnets,
		floor:         p.MinRootStake,
		threshold:     p.MinStakeThreshold,
		totalRequired: model.TotalRequired(p.Subnets),
		now:           time.Now,
		sleep:         sleepCtx,
	}

	next, found, err := e.store.Load()
	if err != nil {
		return nil, fmt.Errorf("engine: load schedule: %w", err)
	}
	now := e.now()
	switch {
	case found && next.Before(now):
		e.nextStaking = next
		e.log.Warn().Time("next_staking", next).Msg("persisted schedule is in the past, staking cycle overdue")
		e.ledger.Append("Missed staking cycle detected - catch-up pending")
	case found:
		e.nextStaking = next
	case p.SeedImmediate:
		// Zero time: the cycle is due on the first funded tick.
		e.nextStaking = time.Time{}
	default:
		e.nextStaking = schedule.NextBoundary(now)
		if err := e.store.Save(e.nextStaking); err != nil {
			return nil, fmt.Errorf("engine: seed schedule: %w", err)
		}
	}
	e.lastDivCheck = now

	return e, nil
}

// Run drives the orchestration loop until ctx is cancelled. Any failure
// inside one iteration is logged and followed by an extended back-off; the
// loop itself never terminates on a transient error.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().
		Int("subnets", len(e.subnets)).
		Float64("min_root_stake", e.floor).
		Float64("total_required", e.totalRequired).
		Time("next_staking", e.nextStaking).
		Msg("orchestration loop started")

	for {
		if ctx.Err() != nil {
			e.log.Info().Msg("orchestration loop stopped")
			return nil
		}

		delay := tickInterval
		if err := e.tick(ctx); err != nil {
			if ctx.Err() != nil {
				e.log.Info().Msg("orchestration loop stopped")
				return nil
			}
			e.log.Error().Err(err).Msg("manager error")
			e.ledger.Append("Error occurred in manager")
			e.setDegraded()
			delay = errorBackoff
		}

		if e.sleep(ctx, delay) != nil {
			e.log.Info().Msg("orchestration loop stopped")
			return nil
		}
	}
}

// tick runs one iteration: refresh observable state, then evaluate the
// dividend cycle before the scheduled staking cycle.
func (e *Engine) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()

	snap := e.Refresh(ctx)

	if !e.now().Before(e.lastDivCheck.Add(dividendCheckInterval)) {
		e.runDividendCycle(ctx, snap)
	}
	if e.stakingDue(snap.Balance) {
		e.runStakingCycle(ctx)
	}
	return nil
}

// Refresh re-reads all observable chain state and publishes a new snapshot.
// Query failures are logged and read as zero; they never abort the tick.
func (e *Engine) Refresh(ctx context.Context) model.Snapshot {
	rootStake := e.readStake(ctx, e.root)
	balance := e.readBalance(ctx)
	stakes := make(map[int]float64, len(e.subnets))
	validators := make(map[int]string, len(e.subnets))
	for _, sn := range e.subnets {
		stakes[sn.NetUID] = e.readStake(ctx, sn.Allocation())
		validators[sn.NetUID] = sn.Validator
	}

	snap := model.Snapshot{
		UpdatedAt:      e.now(),
		RootStake:      rootStake,
		MinRootStake:   e.floor,
		Excess:         rootStake - e.floor,
		RequiredExcess: e.threshold * float64(len(e.subnets)),
		NextDivCheck:   e.lastDivCheck.Add(dividendCheckInterval),
		Balance:        balance,
		TotalRequired:  e.totalRequired,
		NextStaking:    e.nextStaking,
		SubnetStakes:   stakes,
		Validators:     validators,
		History:        e.ledger.Display(),
	}

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	return snap
}

// Snapshot returns a copy of the latest published snapshot. The dashboard
// reads it; nothing feeds back into the engine.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.snap
	stakes := make(map[int]float64, len(snap.SubnetStakes))
	for k, v := range snap.SubnetStakes {
		stakes[k] = v
	}
	snap.SubnetStakes = stakes
	validators := make(map[int]string, len(snap.Validators))
	for k, v := range snap.Validators {
		validators[k] = v
	}
	snap.Validators = validators
	return snap
}

func (e *Engine) setDegraded() {
	e.mu.Lock()
	e.snap.Degraded = true
	e.mu.Unlock()
}

func (e *Engine) readStake(ctx context.Context, alloc model.Allocation) float64 {
	stake, err := e.gw.GetStake(ctx, e.coldkey, alloc.Validator, alloc.NetUID)
	if err != nil {
		e.log.Error().Err(err).Int("netuid", alloc.NetUID).Msg("stake query failed")
		return 0
	}
	return stake
}

func (e *Engine) readBalance(ctx context.Context) float64 {
	balance, err := e.gw.GetBalance(ctx, e.coldkey)
	if err != nil {
		e.log.Error().Err(err).Msg("balance query failed")
		return 0
	}
	return balance
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
