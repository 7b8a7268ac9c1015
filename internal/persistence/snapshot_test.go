package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string    `msgpack:"name"`
	Picks  []int     `msgpack:"picks"`
	Values []float32 `msgpack:"values"`
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "definition.msgpack.lz4")
	in := sample{Name: "lineup", Picks: []int{2, 1}, Values: []float32{1.5, 2.25}}

	require.NoError(t, SaveSnapshot(path, in))

	var out sample
	require.NoError(t, LoadSnapshot(path, &out))
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file removed")
}

func TestLoadSnapshotMissing(t *testing.T) {
	var out sample
	err := LoadSnapshot(filepath.Join(t.TempDir(), "absent"), &out)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadSnapshotCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(path, []byte("not an lz4 frame"), 0600))

	var out sample
	err := LoadSnapshot(path, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
