package dashboard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcjkula/bittensor-scripts/internal/model"
)

// Source provides read-only engine snapshots.
type Source interface {
	Snapshot() model.Snapshot
}

// Dashboard redraws the terminal view on a fixed refresh interval.
type Dashboard struct {
	src     Source
	out     io.Writer
	refresh time.Duration
	log     zerolog.Logger
}

// New creates a dashboard refreshing once per second.
func New(src Source, out io.Writer, logger zerolog.Logger) *Dashboard {
	return &Dashboard{
		src:     src,
		out:     out,
		refresh: time.Second,
		log:     logger,
	}
}

// Run redraws the view until ctx is cancelled. Blocks.
func (d *Dashboard) Run(ctx context.Context) {
	ticker := time.NewTicker(d.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("dashboard stopped")
			return
		case <-ticker.C:
			d.draw()
		}
	}
}

func (d *Dashboard) draw() {
	snap := d.src.Snapshot()
	if snap.UpdatedAt.IsZero() {
		return
	}
	// Clear screen and home the cursor before each redraw.
	fmt.Fprint(d.out, "\033[2J\033[H")
	fmt.Fprint(d.out, Render(snap))
}
