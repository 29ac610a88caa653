package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists operational history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so external readers can query while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transfer_events (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			kind         TEXT,
			netuid       INTEGER,
			requested    REAL,
			actual       REAL,
			stake_before REAL,
			stake_after  REAL,
			outcome      TEXT,
			note         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfer_ts ON transfer_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS dividend_cycles (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			root_stake      REAL,
			excess          REAL,
			required_excess REAL,
			withdrawn       REAL,
			distributed     REAL,
			subnet_count    INTEGER,
			successes       INTEGER,
			outcome         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dividend_ts ON dividend_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS staking_cycles (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			run_id         TEXT,
			scheduled_for  INTEGER,
			executed_at    INTEGER,
			total_required REAL,
			subnet_count   INTEGER,
			successes      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_staking_ts ON staking_cycles(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTransfer(evt *TransferEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO transfer_events
		(timestamp, kind, netuid, requested, actual, stake_before, stake_after, outcome, note)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Kind, evt.NetUID,
		evt.Requested, evt.Actual, evt.StakeBefore, evt.StakeAfter,
		evt.Outcome, evt.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordDividendCycle(cycle *DividendCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO dividend_cycles
		(timestamp, root_stake, excess, required_excess, withdrawn, distributed, subnet_count, successes, outcome)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), cycle.RootStake, cycle.Excess, cycle.RequiredExcess,
		cycle.Withdrawn, cycle.Distributed, cycle.SubnetCount, cycle.Successes,
		cycle.Outcome,
	)
	return err
}

func (r *SQLiteRecorder) RecordStakingCycle(cycle *StakingCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO staking_cycles
		(timestamp, run_id, scheduled_for, executed_at, total_required, subnet_count, successes)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), cycle.RunID,
		cycle.ScheduledFor.Unix(), cycle.ExecutedAt.Unix(),
		cycle.TotalRequired, cycle.SubnetCount, cycle.Successes,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
