// Package schedule persists the next scheduled staking time across process
// restarts and provides the 6-hour boundary arithmetic.
package schedule

import "time"

// Store durably records the single next-staking checkpoint. Save must
// complete before the in-memory value is considered authoritative; a cycle
// whose checkpoint cannot be written stays due.
type Store interface {
	// Load returns the persisted timestamp and whether one exists.
	Load() (time.Time, bool, error)
	// Save writes the timestamp, replacing any previous value.
	Save(t time.Time) error
	Close() error
}
