package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcjkula/bittensor-scripts/internal/gateway"
	"github.com/mcjkula/bittensor-scripts/internal/history"
	"github.com/mcjkula/bittensor-scripts/internal/model"
)

const (
	testColdkey    = "coldkey-ss58"
	testRootHotkey = "root-validator-ss58"
)

// memStore is an in-memory schedule.Store for engine tests.
type memStore struct {
	value   time.Time
	found   bool
	saveErr error
	saves   []time.Time
}

func (s *memStore) Load() (time.Time, bool, error) { return s.value, s.found, nil }

func (s *memStore) Save(t time.Time) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.value = t
	s.found = true
	s.saves = append(s.saves, t)
	return nil
}

func (s *memStore) Close() error { return nil }

func testSubnets(n int) []model.SubnetConfig {
	subnets := make([]model.SubnetConfig, 0, n)
	for i := 1; i <= n; i++ {
		subnets = append(subnets, model.SubnetConfig{
			NetUID:    i,
			Amount:    0.01,
			Validator: fmt.Sprintf("validator-%d", i),
		})
	}
	return subnets
}

// newTestEngine wires an engine against the mock gateway with instantaneous
// sleeps; the recorded delays let tests assert settle/cool-down sequencing.
func newTestEngine(t *testing.T, mock *gateway.MockClient, store *memStore, subnets []model.SubnetConfig) (*Engine, *[]time.Duration) {
	t.Helper()

	ledger := history.NewLedger(history.DefaultCapacity, zerolog.Nop())
	e, err := New(Params{
		Gateway:           mock,
		Store:             store,
		Ledger:            ledger,
		Approver:          StaticApprover(true),
		Logger:            zerolog.Nop(),
		Coldkey:           testColdkey,
		RootHotkey:        testRootHotkey,
		Subnets:           subnets,
		MinRootStake:      1.0,
		MinStakeThreshold: 0.0005,
	})
	require.NoError(t, err)

	sleeps := new([]time.Duration)
	e.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return e, sleeps
}

func ledgerContains(l *history.Ledger, substr string) bool {
	for _, entry := range l.Display() {
		if strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}

func countOps(calls []gateway.Call, op string) int {
	n := 0
	for _, c := range calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestTickRunsDividendBeforeStaking(t *testing.T) {
	mock := gateway.NewMockClient(1.0)
	mock.SetStake(testRootHotkey, model.RootNetUID, 1.5)
	e, _ := newTestEngine(t, mock, &memStore{}, testSubnets(1))

	// Make both cycles due on the same tick.
	e.lastDivCheck = e.now().Add(-2 * time.Minute)
	e.nextStaking = e.now().Add(-time.Hour)

	require.NoError(t, e.tick(context.Background()))

	calls := mock.Calls()
	require.NotEmpty(t, calls)
	assert.Equal(t, "decrease", calls[0].Op, "dividend withdrawal must precede all staking")
	assert.Equal(t, "increase", calls[len(calls)-1].Op)
	// Dividend fan-out (0.5) plus the scheduled deposit (0.01).
	assert.Equal(t, 2, countOps(calls, "increase"))
}

func TestRefreshPublishesSnapshot(t *testing.T) {
	mock := gateway.NewMockClient(0.25)
	mock.SetStake(testRootHotkey, model.RootNetUID, 1.5)
	mock.SetStake("validator-1", 1, 0.1)
	e, _ := newTestEngine(t, mock, &memStore{}, testSubnets(2))

	snap := e.Refresh(context.Background())

	assert.InDelta(t, 1.5, snap.RootStake, 1e-9)
	assert.InDelta(t, 0.5, snap.Excess, 1e-9)
	assert.InDelta(t, 0.001, snap.RequiredExcess, 1e-9)
	assert.InDelta(t, 0.25, snap.Balance, 1e-9)
	assert.InDelta(t, 0.02, snap.TotalRequired, 1e-9)
	assert.InDelta(t, 0.1, snap.SubnetStakes[1], 1e-9)
	assert.InDelta(t, 0.0, snap.SubnetStakes[2], 1e-9)
	assert.Equal(t, "validator-1", snap.Validators[1])
}

func TestRefreshQueryFailureReadsZero(t *testing.T) {
	mock := gateway.NewMockClient(5.0)
	mock.SetStake(testRootHotkey, model.RootNetUID, 1.5)
	mock.QueryErr = fmt.Errorf("connection refused")
	e, _ := newTestEngine(t, mock, &memStore{}, testSubnets(1))

	snap := e.Refresh(context.Background())

	assert.Zero(t, snap.RootStake)
	assert.Zero(t, snap.Balance)
}

func TestSnapshotCopyIsIsolated(t *testing.T) {
	mock := gateway.NewMockClient(1.0)
	mock.SetStake("validator-1", 1, 0.5)
	e, _ := newTestEngine(t, mock, &memStore{}, testSubnets(1))

	e.Refresh(context.Background())
	snap := e.Snapshot()
	snap.SubnetStakes[1] = 999

	assert.InDelta(t, 0.5, e.Snapshot().SubnetStakes[1], 1e-9)
}

func TestRunStopsOnCancel(t *testing.T) {
	mock := gateway.NewMockClient(0)
	e, _ := newTestEngine(t, mock, &memStore{}, testSubnets(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, e.Run(ctx))
}

func TestSubnetsProcessedInConfigOrder(t *testing.T) {
	mock := gateway.NewMockClient(1.0)
	e, _ := newTestEngine(t, mock, &memStore{}, []model.SubnetConfig{
		{NetUID: 64, Amount: 0.01, Validator: "validator-64"},
		{NetUID: 4, Amount: 0.01, Validator: "validator-4"},
		{NetUID: 19, Amount: 0.01, Validator: "validator-19"},
	})

	e.runStakingCycle(context.Background())

	var order []int
	for _, c := range mock.Calls() {
		order = append(order, c.NetUID)
	}
	assert.Equal(t, []int{64, 4, 19}, order, "subnets run in the order the config lists them")
}

func TestRunRecoversFromTickPanic(t *testing.T) {
	mock := gateway.NewMockClient(0)
	e, _ := newTestEngine(t, mock, &memStore{}, testSubnets(1))

	// First clock read inside the tick panics; every later read is normal.
	calls := 0
	e.now = func() time.Time {
		calls++
		if calls == 1 {
			panic("clock skew")
		}
		return time.Now()
	}

	ctx, cancel := context.WithCancel(context.Background())
	var sleeps []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		cancel()
		return nil
	}

	require.NoError(t, e.Run(ctx))

	assert.True(t, ledgerContains(e.ledger, "Error occurred in manager"))
	assert.True(t, e.Snapshot().Degraded)
	require.Len(t, sleeps, 1)
	assert.Equal(t, errorBackoff, sleeps[0], "failed iteration is followed by the extended back-off")
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Params{})
	assert.Error(t, err)

	_, err = New(Params{Gateway: gateway.NewMockClient(0)})
	assert.Error(t, err)
}
