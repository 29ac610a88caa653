package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcjkula/bittensor-scripts/internal/recorder"
	"github.com/mcjkula/bittensor-scripts/internal/schedule"
)

// stakingDue reports whether the scheduled staking cycle should run this
// tick: the checkpoint has been reached and the balance covers the full
// subnet set. Underfunded cycles are simply re-evaluated next tick.
func (e *Engine) stakingDue(balance float64) bool {
	return !e.now().Before(e.nextStaking) && balance >= e.totalRequired
}

// runStakingCycle deposits the configured amount into every subnet in
// configuration order, then advances the checkpoint to the first 6-hour
// boundary after now and persists it. Per-subnet failures never gate the
// remaining subnets.
func (e *Engine) runStakingCycle(ctx context.Context) {
	runID := uuid.NewString()
	scheduledFor := e.nextStaking
	executedAt := e.now()
	e.log.Info().
		Str("run_id", runID).
		Time("scheduled_for", scheduledFor).
		Msg("running scheduled staking cycle")

	successes := 0
	for _, sn := range e.subnets {
		if staked := e.deposit(ctx, sn.Allocation(), sn.Amount); staked > 0 {
			successes++
		}
	}

	next := schedule.AdvancePast(scheduledFor, e.now())
	if err := e.store.Save(next); err != nil {
		// Without a durable checkpoint the cycle is not complete; the old
		// in-memory value stays, so it remains due on the next evaluation.
		e.log.Error().Err(err).Str("run_id", runID).Msg("persist schedule checkpoint failed")
		e.ledger.Append("Schedule checkpoint write failed - cycle remains due")
		return
	}
	e.nextStaking = next

	e.ledger.Append("Processed scheduled staking cycle")
	if err := e.rec.RecordStakingCycle(&recorder.StakingCycle{
		RunID:         runID,
		ScheduledFor:  scheduledFor,
		ExecutedAt:    executedAt,
		TotalRequired: e.totalRequired,
		SubnetCount:   len(e.subnets),
		Successes:     successes,
	}); err != nil {
		e.log.Error().Err(err).Msg("record staking cycle")
	}
}
