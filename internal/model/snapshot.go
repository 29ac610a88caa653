package model

import "time"

// HistoryEntry is one operator-facing event in the history ledger.
type HistoryEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Snapshot is a read-only view of the engine state, taken once per tick and
// consumed by the dashboard. It never feeds decisions back into the engine.
type Snapshot struct {
	UpdatedAt time.Time `json:"updated_at"`

	// Dividend management
	RootStake      float64   `json:"root_stake"`
	MinRootStake   float64   `json:"min_root_stake"`
	Excess         float64   `json:"excess"`
	RequiredExcess float64   `json:"required_excess"`
	NextDivCheck   time.Time `json:"next_div_check"`

	// Scheduled staking
	Balance       float64   `json:"balance"`
	TotalRequired float64   `json:"total_required"`
	NextStaking   time.Time `json:"next_staking"`

	// Per-subnet stake table and validator addresses, keyed by netuid.
	SubnetStakes map[int]float64 `json:"subnet_stakes"`
	Validators   map[int]string  `json:"validators"`

	History []HistoryEntry `json:"history"`

	// Degraded is set when the last loop iteration failed and the engine is
	// backing off.
	Degraded bool `json:"degraded"`
}
