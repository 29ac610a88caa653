package schedule

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketSchedule = []byte("schedule")
	keyNextStaking = []byte("next_staking")
)

// BoltStore persists the schedule checkpoint in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the database at dbPath. The parent
// directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("schedule: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("schedule: open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSchedule)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schedule: create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Load reads the persisted next-staking timestamp.
func (s *BoltStore) Load() (time.Time, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketSchedule).Get(keyNextStaking); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("schedule: load: %w", err)
	}
	if raw == nil {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("schedule: parse %q: %w", raw, err)
	}
	return t, true, nil
}

// Save writes the next-staking timestamp synchronously.
func (s *BoltStore) Save(t time.Time) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSchedule).Put(keyNextStaking, []byte(t.UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return fmt.Errorf("schedule: save: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }
