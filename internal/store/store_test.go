package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadMissingBlob(t *testing.T) {
	s := New(t.TempDir())

	data, ok, err := s.Read("events.json")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, data)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	require.NoError(t, s.Write("events.json", []byte(`[]`)))

	data, ok, err := s.Read("events.json")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[]`, string(data))
}

func TestWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := New(dir)

	require.NoError(t, s.Write("settings.json", []byte(`{}`)))

	info, err := os.Stat(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEmptyBlobIsDistinctFromMissing(t *testing.T) {
	s := New(t.TempDir())

	require.NoError(t, s.Write("empty", nil))

	data, ok, err := s.Read("empty")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, data)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.Write("events.json", []byte(`[1]`)))
	require.NoError(t, s.Write("events.json", []byte(`[2]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
