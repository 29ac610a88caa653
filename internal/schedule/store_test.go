package schedule

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.db")
	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Load()
	require.NoError(t, err)
	assert.False(t, found, "fresh store must have no checkpoint")

	want := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(want))

	got, found, err := s.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Equal(want), "got %s, want %s", got, want)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.db")
	s, err := OpenBoltStore(path)
	require.NoError(t, err)

	want := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(want))
	require.NoError(t, s.Close())

	s2, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got, found, err := s2.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Equal(want))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.json")
	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, found, err := s.Load()
	require.NoError(t, err)
	assert.False(t, found)

	want := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(want))

	got, found, err := s.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Equal(want))
}
