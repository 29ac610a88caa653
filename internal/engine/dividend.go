package engine

import (
	"context"
	"fmt"

	"github.com/mcjkula/bittensor-scripts/internal/model"
	"github.com/mcjkula/bittensor-scripts/internal/recorder"
)

// runDividendCycle harvests excess stake above the root floor and fans it
// out evenly across the configured subnets. The pacing clock advances at
// completion whether or not a transfer happened, so checks stay wall-clock
// paced rather than work paced.
func (e *Engine) runDividendCycle(ctx context.Context, snap model.Snapshot) {
	cycle := &recorder.DividendCycle{
		RootStake:      snap.RootStake,
		Excess:         snap.Excess,
		RequiredExcess: snap.RequiredExcess,
		SubnetCount:    len(e.subnets),
	}
	defer func() {
		e.lastDivCheck = e.now()
		if err := e.rec.RecordDividendCycle(cycle); err != nil {
			e.log.Error().Err(err).Msg("record dividend cycle")
		}
	}()

	if snap.RootStake <= e.floor || snap.Excess < snap.RequiredExcess {
		e.ledger.Append("Dividend check - insufficient excess")
		cycle.Outcome = "insufficient_excess"
		return
	}

	withdrawn := e.withdrawWithFloor(ctx, e.root, snap.Excess)
	cycle.Withdrawn = withdrawn
	if withdrawn <= 0 {
		e.ledger.Append("No funds available for distribution")
		cycle.Outcome = "no_funds"
		return
	}

	perSubnet := withdrawn / float64(len(e.subnets))
	successes := 0
	for _, sn := range e.subnets {
		start := e.now()
		staked := e.deposit(ctx, sn.Allocation(), perSubnet)
		if staked > 0 {
			successes++
			cycle.Distributed += staked
			e.log.Info().
				Int("netuid", sn.NetUID).
				Float64("amount", staked).
				Dur("took", e.now().Sub(start)).
				Msg("dividend share staked")
		} else {
			e.ledger.Append(fmt.Sprintf("Subnet %d distribution failure", sn.NetUID))
		}
	}

	coverage := float64(successes) / float64(len(e.subnets)) * 100
	e.ledger.Append(fmt.Sprintf("Distributed %.5f TAO (Coverage: %.1f%%)", withdrawn, coverage))
	cycle.Successes = successes
	cycle.Outcome = "distributed"
}
