package gateway

import (
	"context"
	"fmt"
	"sync"
)

// Call records one mutation issued against the mock, in order.
type Call struct {
	Op     string // "increase" or "decrease"
	NetUID int
	Hotkey string
	Amount float64
}

// MockClient is an in-memory Client for tests and dry runs. Mutations apply
// to the stake map unless an error field is set; Slippage simulates extra
// stake lost on a decrease (used to exercise the floor-breach path).
type MockClient struct {
	mu      sync.Mutex
	stakes  map[string]float64
	balance float64
	calls   []Call

	QueryErr       error // returned by both queries when set
	IncreaseErr    error
	IncreaseErrFor map[int]error // per-netuid increase failures
	DecreaseErr    error
	Slippage       float64
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock with the given free balance.
func NewMockClient(balance float64) *MockClient {
	return &MockClient{
		stakes:  make(map[string]float64),
		balance: balance,
	}
}

func (m *MockClient) Name() string { return "mock" }

func stakeKey(hotkey string, netuid int) string {
	return fmt.Sprintf("%s/%d", hotkey, netuid)
}

// SetStake seeds the stake for (hotkey, netuid).
func (m *MockClient) SetStake(hotkey string, netuid int, amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stakes[stakeKey(hotkey, netuid)] = amount
}

// SetBalance replaces the free balance.
func (m *MockClient) SetBalance(balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = balance
}

// Stake reads the current mock stake for (hotkey, netuid).
func (m *MockClient) Stake(hotkey string, netuid int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stakes[stakeKey(hotkey, netuid)]
}

// Calls returns a copy of the recorded mutations.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockClient) GetStake(_ context.Context, _, hotkey string, netuid int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return 0, m.QueryErr
	}
	return m.stakes[stakeKey(hotkey, netuid)], nil
}

func (m *MockClient) GetBalance(_ context.Context, _ string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return 0, m.QueryErr
	}
	return m.balance, nil
}

func (m *MockClient) IncreaseStake(_ context.Context, netuid int, hotkey string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "increase", NetUID: netuid, Hotkey: hotkey, Amount: amount})
	if m.IncreaseErr != nil {
		return m.IncreaseErr
	}
	if err := m.IncreaseErrFor[netuid]; err != nil {
		return err
	}
	m.stakes[stakeKey(hotkey, netuid)] += amount
	m.balance -= amount
	return nil
}

func (m *MockClient) DecreaseStake(_ context.Context, netuid int, hotkey string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "decrease", NetUID: netuid, Hotkey: hotkey, Amount: amount})
	if m.DecreaseErr != nil {
		return m.DecreaseErr
	}
	key := stakeKey(hotkey, netuid)
	m.stakes[key] -= amount + m.Slippage
	if m.stakes[key] < 0 {
		m.stakes[key] = 0
	}
	m.balance += amount
	return nil
}
