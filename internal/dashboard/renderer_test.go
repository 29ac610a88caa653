package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcjkula/bittensor-scripts/internal/model"
)

func sampleSnapshot() model.Snapshot {
	now := time.Date(2025, 3, 1, 11, 58, 30, 0, time.UTC)
	return model.Snapshot{
		UpdatedAt:      now,
		RootStake:      1.5,
		MinRootStake:   1.0,
		Excess:         0.5,
		RequiredExcess: 0.0025,
		NextDivCheck:   now.Add(42 * time.Second),
		Balance:        0.2,
		TotalRequired:  0.05,
		NextStaking:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		SubnetStakes:   map[int]float64{19: 0.31, 4: 1.02, 64: 0.0},
		Validators:     map[int]string{19: "5Validator19", 4: "5Validator4", 64: "5Validator64"},
		History: []model.HistoryEntry{
			{Time: now.Add(-time.Minute), Message: "Distributed 0.50000 TAO (Coverage: 100.0%)"},
		},
	}
}

func TestRenderPanels(t *testing.T) {
	out := Render(sampleSnapshot())

	assert.Contains(t, out, "== Dividend Management ==")
	assert.Contains(t, out, "== Scheduled Staking ==")
	assert.Contains(t, out, "== Subnet Allocations ==")
	assert.Contains(t, out, "== Operation History ==")

	assert.Contains(t, out, "Current Stake:   1.50000 TAO")
	assert.Contains(t, out, "Current Excess:  0.50000 TAO")
	assert.Contains(t, out, "Next Update In:  0m 42s")
	assert.Contains(t, out, "Status:          Active")

	assert.Contains(t, out, "Next Staking:    2025-03-01 12:00:00")
	assert.Contains(t, out, "Funding Status:  Ready")

	assert.Contains(t, out, "Net  19: 0.31000 a  5Validator19")

	assert.Contains(t, out, "[11:57:30] Distributed 0.50000 TAO (Coverage: 100.0%)")
	assert.NotContains(t, out, "!! Error occurred")
}

func TestRenderSubnetsSorted(t *testing.T) {
	out := Render(sampleSnapshot())
	i4 := strings.Index(out, "Net   4:")
	i19 := strings.Index(out, "Net  19:")
	i64 := strings.Index(out, "Net  64:")
	assert.True(t, i4 >= 0 && i4 < i19 && i19 < i64, "subnets render in ascending netuid order")
}

func TestRenderWaitingAndInsufficient(t *testing.T) {
	snap := sampleSnapshot()
	snap.Excess = 0.001
	snap.RequiredExcess = 0.0025
	snap.Balance = 0.01

	out := Render(snap)
	assert.Contains(t, out, "Status:          Waiting")
	assert.Contains(t, out, "Funding Status:  Insufficient")
}

func TestRenderStakingDueNow(t *testing.T) {
	snap := sampleSnapshot()

	snap.NextStaking = time.Time{}
	assert.Contains(t, Render(snap), "Next Staking:    due now")

	snap.NextStaking = snap.UpdatedAt.Add(-time.Hour)
	assert.Contains(t, Render(snap), "Next Staking:    due now")
}

func TestRenderDegradedBanner(t *testing.T) {
	snap := sampleSnapshot()
	snap.Degraded = true
	assert.Contains(t, Render(snap), "!! Error occurred - check logs")
}

func TestRenderEmptyHistory(t *testing.T) {
	snap := sampleSnapshot()
	snap.History = nil
	assert.Contains(t, Render(snap), "(no events yet)")
}

func TestCountdownClampsNegative(t *testing.T) {
	assert.Equal(t, "0m 0s", countdown(-5*time.Second))
	assert.Equal(t, "76m 5s", countdown(76*time.Minute+5*time.Second))
}
