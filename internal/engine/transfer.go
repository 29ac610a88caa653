package engine

import (
	"context"
	"fmt"

	"github.com/mcjkula/bittensor-scripts/internal/model"
	"github.com/mcjkula/bittensor-scripts/internal/recorder"
)

// guarded runs one transfer with bounded retries and exponential backoff,
// and enforces the mandatory cool-down on every exit path so chain rate
// limits are respected regardless of outcome.
func (e *Engine) guarded(ctx context.Context, fn func() error) error {
	defer func() {
		_ = e.sleep(ctx, coolDown)
	}()

	backoff := backoffInitial
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		e.log.Warn().Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("transfer attempt failed, retrying")
		if e.sleep(ctx, backoff) != nil {
			return err
		}
		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}
	return err
}

// withdrawWithFloor withdraws up to requested from alloc, clamped so the
// stake never drops below the floor. Returns the amount actually withdrawn
// before any emergency restake, for fan-out accounting.
func (e *Engine) withdrawWithFloor(ctx context.Context, alloc model.Allocation, requested float64) float64 {
	var actual float64
	err := e.guarded(ctx, func() error {
		a, err := e.tryWithdraw(ctx, alloc, requested)
		actual = a
		return err
	})
	if err != nil {
		e.log.Error().Err(err).Int("netuid", alloc.NetUID).Msg("unstaking failed")
		e.ledger.Append(fmt.Sprintf("Unstaking failed on Net %d: %v", alloc.NetUID, err))
		e.record(&recorder.TransferEvent{
			Kind: "withdraw", NetUID: alloc.NetUID, Requested: requested,
			Outcome: "failed", Note: err.Error(),
		})
		return 0
	}
	return actual
}

func (e *Engine) tryWithdraw(ctx context.Context, alloc model.Allocation, requested float64) (float64, error) {
	initial := e.readStake(ctx, alloc)

	safeMax := initial - e.floor
	if safeMax < 0 {
		safeMax = 0
	}
	actual := requested
	if actual > safeMax {
		actual = safeMax
	}

	if actual <= 0 {
		e.log.Warn().
			Int("netuid", alloc.NetUID).
			Float64("requested", requested).
			Float64("safe_max", safeMax).
			Msg("unsafe unstake attempt blocked")
		e.ledger.Append(fmt.Sprintf("Unstake blocked on Net %d (would breach minimum)", alloc.NetUID))
		e.record(&recorder.TransferEvent{
			Kind: "withdraw", NetUID: alloc.NetUID, Requested: requested,
			StakeBefore: initial, StakeAfter: initial, Outcome: "blocked",
		})
		return 0, nil
	}

	e.log.Info().
		Int("netuid", alloc.NetUID).
		Float64("amount", actual).
		Float64("safe_max", safeMax).
		Msg("unstake requested")
	if !e.approver.Approve(fmt.Sprintf("Unstake %.5f TAO on network %d?", actual, alloc.NetUID)) {
		e.log.Info().Int("netuid", alloc.NetUID).Msg("unstake cancelled by operator")
		e.ledger.Append(fmt.Sprintf("Cancelled unstaking on Net %d", alloc.NetUID))
		e.record(&recorder.TransferEvent{
			Kind: "withdraw", NetUID: alloc.NetUID, Requested: requested,
			StakeBefore: initial, StakeAfter: initial, Outcome: "declined",
		})
		return 0, nil
	}

	if err := e.gw.DecreaseStake(ctx, alloc.NetUID, alloc.Validator, actual); err != nil {
		return 0, err
	}
	_ = e.sleep(ctx, settleDelay)
	newStake := e.readStake(ctx, alloc)

	if newStake < e.floor {
		deficit := e.floor - newStake
		e.log.Warn().
			Int("netuid", alloc.NetUID).
			Float64("deficit", deficit).
			Msg("floor breached after settlement, emergency restake needed")
		if restaked := e.depositKind(ctx, alloc, deficit, "emergency_restake"); restaked > 0 {
			e.ledger.Append(fmt.Sprintf("Emergency restake: %.5f TAO on Net %d", deficit, alloc.NetUID))
		} else {
			e.log.Error().
				Int("netuid", alloc.NetUID).
				Float64("deficit", deficit).
				Msg("emergency restake failed")
			e.ledger.Append(fmt.Sprintf("Emergency restake FAILED on Net %d", alloc.NetUID))
		}
		newStake = e.readStake(ctx, alloc)
	}

	e.log.Info().
		Int("netuid", alloc.NetUID).
		Float64("unstaked", actual).
		Float64("final_stake", newStake).
		Msg("unstaked")
	e.ledger.Append(fmt.Sprintf("Unstaked %.5f TAO on Net %d", actual, alloc.NetUID))
	e.record(&recorder.TransferEvent{
		Kind: "withdraw", NetUID: alloc.NetUID, Requested: requested, Actual: actual,
		StakeBefore: initial, StakeAfter: newStake, Outcome: "ok",
	})
	return actual, nil
}

// deposit stakes amount into alloc. Failures are converted to a zero return;
// the caller treats zero as "this subnet failed" and continues.
func (e *Engine) deposit(ctx context.Context, alloc model.Allocation, amount float64) float64 {
	return e.depositKind(ctx, alloc, amount, "deposit")
}

func (e *Engine) depositKind(ctx context.Context, alloc model.Allocation, amount float64, kind string) float64 {
	var actual float64
	err := e.guarded(ctx, func() error {
		a, err := e.tryDeposit(ctx, alloc, amount, kind)
		actual = a
		return err
	})
	if err != nil {
		e.log.Error().Err(err).Int("netuid", alloc.NetUID).Msg("staking failed")
		e.ledger.Append(fmt.Sprintf("Staking failed on Net %d: %v", alloc.NetUID, err))
		e.record(&recorder.TransferEvent{
			Kind: kind, NetUID: alloc.NetUID, Requested: amount,
			Outcome: "failed", Note: err.Error(),
		})
		return 0
	}
	return actual
}

func (e *Engine) tryDeposit(ctx context.Context, alloc model.Allocation, amount float64, kind string) (float64, error) {
	initial := e.readStake(ctx, alloc)

	e.log.Info().
		Int("netuid", alloc.NetUID).
		Float64("amount", amount).
		Float64("current_stake", initial).
		Msg("stake requested")
	if !e.approver.Approve(fmt.Sprintf("Stake %.5f TAO on network %d?", amount, alloc.NetUID)) {
		e.log.Info().Int("netuid", alloc.NetUID).Msg("staking cancelled by operator")
		e.ledger.Append(fmt.Sprintf("Cancelled staking on Net %d", alloc.NetUID))
		e.record(&recorder.TransferEvent{
			Kind: kind, NetUID: alloc.NetUID, Requested: amount,
			StakeBefore: initial, StakeAfter: initial, Outcome: "declined",
		})
		return 0, nil
	}

	if err := e.gw.IncreaseStake(ctx, alloc.NetUID, alloc.Validator, amount); err != nil {
		return 0, err
	}
	_ = e.sleep(ctx, settleDelay)
	newStake := e.readStake(ctx, alloc)

	e.log.Info().
		Int("netuid", alloc.NetUID).
		Float64("stake_before", initial).
		Float64("stake_after", newStake).
		Msg("staked")
	e.ledger.Append(fmt.Sprintf("Staked %.5f TAO on Net %d", amount, alloc.NetUID))
	e.record(&recorder.TransferEvent{
		Kind: kind, NetUID: alloc.NetUID, Requested: amount, Actual: amount,
		StakeBefore: initial, StakeAfter: newStake, Outcome: "ok",
	})
	return amount, nil
}

func (e *Engine) record(evt *recorder.TransferEvent) {
	if err := e.rec.RecordTransfer(evt); err != nil {
		e.log.Error().Err(err).Msg("record transfer event")
	}
}
