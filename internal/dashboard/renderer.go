// Package dashboard renders a live terminal view of the engine snapshot.
// It is a pure presentation consumer: it only reads snapshots and never
// feeds decisions back into the engine.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mcjkula/bittensor-scripts/internal/model"
)

// Render formats a snapshot into the four-panel operator view.
func Render(snap model.Snapshot) string {
	var b strings.Builder

	b.WriteString(renderDividendPanel(snap))
	b.WriteString("\n")
	b.WriteString(renderStakingPanel(snap))
	b.WriteString("\n")
	b.WriteString(renderSubnetPanel(snap))
	b.WriteString("\n")
	b.WriteString(renderHistoryPanel(snap))

	if snap.Degraded {
		b.WriteString("\n!! Error occurred - check logs\n")
	}
	return b.String()
}

func renderDividendPanel(snap model.Snapshot) string {
	var b strings.Builder
	b.WriteString("== Dividend Management ==\n")
	b.WriteString(fmt.Sprintf("Current Stake:   %.5f TAO\n", snap.RootStake))
	b.WriteString(fmt.Sprintf("Minimum Stake:   %.5f TAO\n", snap.MinRootStake))
	b.WriteString(fmt.Sprintf("Current Excess:  %.5f TAO\n", snap.Excess))
	b.WriteString(fmt.Sprintf("Required Excess: %.5f TAO\n", snap.RequiredExcess))
	b.WriteString(fmt.Sprintf("Next Update In:  %s\n", countdown(snap.NextDivCheck.Sub(snap.UpdatedAt))))

	status := "Waiting"
	if snap.Excess >= snap.RequiredExcess {
		status = "Active"
	}
	b.WriteString(fmt.Sprintf("Status:          %s\n", status))
	return b.String()
}

func renderStakingPanel(snap model.Snapshot) string {
	var b strings.Builder
	b.WriteString("== Scheduled Staking ==\n")
	if snap.NextStaking.IsZero() || !snap.NextStaking.After(snap.UpdatedAt) {
		b.WriteString("Next Staking:    due now\n")
	} else {
		b.WriteString(fmt.Sprintf("Next Staking:    %s (%s)\n",
			snap.NextStaking.UTC().Format("2006-01-02 15:04:05"),
			humanize.RelTime(snap.NextStaking, snap.UpdatedAt, "ago", "from now")))
	}
	b.WriteString(fmt.Sprintf("Current Balance: %.5f TAO\n", snap.Balance))
	b.WriteString(fmt.Sprintf("Required Total:  %.5f TAO\n", snap.TotalRequired))

	status := "Insufficient"
	if snap.Balance >= snap.TotalRequired {
		status = "Ready"
	}
	b.WriteString(fmt.Sprintf("Funding Status:  %s\n", status))
	return b.String()
}

func renderSubnetPanel(snap model.Snapshot) string {
	var b strings.Builder
	b.WriteString("== Subnet Allocations ==\n")

	netuids := make([]int, 0, len(snap.SubnetStakes))
	for netuid := range snap.SubnetStakes {
		netuids = append(netuids, netuid)
	}
	sort.Ints(netuids)

	for _, netuid := range netuids {
		b.WriteString(fmt.Sprintf("Net %3d: %.5f a  %s\n",
			netuid, snap.SubnetStakes[netuid], snap.Validators[netuid]))
	}
	return b.String()
}

func renderHistoryPanel(snap model.Snapshot) string {
	var b strings.Builder
	b.WriteString("== Operation History ==\n")
	if len(snap.History) == 0 {
		b.WriteString("(no events yet)\n")
		return b.String()
	}
	for _, entry := range snap.History {
		b.WriteString(fmt.Sprintf("[%s] %s\n", entry.Time.Format("15:04:05"), entry.Message))
	}
	return b.String()
}

func countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", mins, secs)
}
