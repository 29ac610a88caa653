package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileState is the on-disk JSON shape of the file-backed store.
type fileState struct {
	NextStaking time.Time `json:"next_staking"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FileStore persists the schedule checkpoint as a small JSON file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store at path. The file is created on
// the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("schedule: create directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Load reads the persisted next-staking timestamp. A missing file means no
// checkpoint exists yet.
func (s *FileStore) Load() (time.Time, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("schedule: read state: %w", err)
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return time.Time{}, false, fmt.Errorf("schedule: parse state: %w", err)
	}
	if st.NextStaking.IsZero() {
		return time.Time{}, false, nil
	}
	return st.NextStaking, true, nil
}

// Save writes the next-staking timestamp.
func (s *FileStore) Save(t time.Time) error {
	st := fileState{NextStaking: t.UTC(), UpdatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("schedule: marshal state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("schedule: write state: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }
