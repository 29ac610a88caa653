package recorder

import "time"

// TransferEvent records one guarded transfer outcome.
type TransferEvent struct {
	Kind        string // "withdraw", "deposit" or "emergency_restake"
	NetUID      int
	Requested   float64
	Actual      float64
	StakeBefore float64
	StakeAfter  float64
	Outcome     string // "ok", "blocked", "declined", "failed"
	Note        string
}

// DividendCycle records one full rebalancing check.
type DividendCycle struct {
	RootStake      float64
	Excess         float64
	RequiredExcess float64
	Withdrawn      float64
	Distributed    float64
	SubnetCount    int
	Successes      int
	Outcome        string // "distributed", "no_funds", "insufficient_excess"
}

// StakingCycle records one scheduled staking run.
type StakingCycle struct {
	RunID         string
	ScheduledFor  time.Time
	ExecutedAt    time.Time
	TotalRequired float64
	SubnetCount   int
	Successes     int
}

// Recorder persists operational history for analysis.
type Recorder interface {
	RecordTransfer(evt *TransferEvent) error
	RecordDividendCycle(cycle *DividendCycle) error
	RecordStakingCycle(cycle *StakingCycle) error
	Close() error
}
