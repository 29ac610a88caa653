package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func count(t *testing.T, r *SQLiteRecorder, table string) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestRecordTransfer(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordTransfer(&TransferEvent{
		Kind: "withdraw", NetUID: 0, Requested: 0.5, Actual: 0.5,
		StakeBefore: 1.5, StakeAfter: 1.0, Outcome: "ok",
	}))
	require.NoError(t, r.RecordTransfer(&TransferEvent{
		Kind: "deposit", NetUID: 19, Requested: 0.1,
		Outcome: "failed", Note: "extrinsic failed",
	}))

	assert.Equal(t, 2, count(t, r, "transfer_events"))

	var kind, outcome string
	var actual float64
	require.NoError(t, r.db.QueryRow(
		"SELECT kind, outcome, actual FROM transfer_events WHERE netuid = 0").
		Scan(&kind, &outcome, &actual))
	assert.Equal(t, "withdraw", kind)
	assert.Equal(t, "ok", outcome)
	assert.Equal(t, 0.5, actual)
}

func TestRecordCycles(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.RecordDividendCycle(&DividendCycle{
		RootStake: 1.5, Excess: 0.5, RequiredExcess: 0.0025,
		Withdrawn: 0.5, Distributed: 0.5, SubnetCount: 5, Successes: 5,
		Outcome: "distributed",
	}))
	require.NoError(t, r.RecordStakingCycle(&StakingCycle{
		RunID:        "run-1",
		ScheduledFor: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		ExecutedAt:   time.Date(2025, 3, 10, 12, 0, 2, 0, time.UTC),
		SubnetCount:  3, Successes: 3,
	}))

	assert.Equal(t, 1, count(t, r, "dividend_cycles"))
	assert.Equal(t, 1, count(t, r, "staking_cycles"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.RecordTransfer(&TransferEvent{Kind: "deposit", Outcome: "ok"}))
	require.NoError(t, r.Close())

	r2, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, 1, count(t, r2, "transfer_events"), "reopen keeps existing rows")
}
