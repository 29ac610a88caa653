// Package history keeps a bounded, in-memory log of operator-facing events.
package history

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcjkula/bittensor-scripts/internal/model"
)

const (
	// DefaultCapacity is the primary retention bound.
	DefaultCapacity = 5
	// DisplayCapacity bounds the secondary buffer the dashboard reads from.
	DisplayCapacity = 10
)

// Ledger is an append-only event log with FIFO eviction. The primary buffer
// holds the most recent entries; a larger secondary buffer backs the
// dashboard's history panel.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	entries  []model.HistoryEntry
	display  []model.HistoryEntry
	now      func() time.Time
	log      zerolog.Logger
}

// NewLedger creates a ledger with the given primary capacity. A capacity of
// zero or less falls back to DefaultCapacity.
func NewLedger(capacity int, logger zerolog.Logger) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		capacity: capacity,
		now:      time.Now,
		log:      logger,
	}
}

// Append records a message, evicting the oldest entry beyond capacity.
// Every entry is mirrored to the structured log.
func (l *Ledger) Append(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := model.HistoryEntry{Time: l.now(), Message: message}
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[len(l.entries)-l.capacity:]
	}
	l.display = append(l.display, entry)
	if len(l.display) > DisplayCapacity {
		l.display = l.display[len(l.display)-DisplayCapacity:]
	}

	l.log.Info().Str("event", message).Msg("history")
}

// Recent returns a copy of the primary buffer, oldest first.
func (l *Ledger) Recent() []model.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Display returns a copy of the secondary buffer used by the dashboard.
func (l *Ledger) Display() []model.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.HistoryEntry, len(l.display))
	copy(out, l.display)
	return out
}

// Len reports the number of retained primary entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
