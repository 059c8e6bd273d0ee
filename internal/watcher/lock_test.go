package watcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	first := NewLock(root)
	assert.Equal(t, filepath.Join(root, ".phptdd", "watch.lock"), first.Path())
	require.NoError(t, first.Acquire())

	second := NewLock(root)
	assert.ErrorIs(t, second.Acquire(), ErrAlreadyWatching)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
}

func TestLock_ReleaseWithoutAcquire(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewLock(t.TempDir()).Release())
}

func TestLock_SeparateWorkspaces(t *testing.T) {
	t.Parallel()

	a := NewLock(t.TempDir())
	b := NewLock(t.TempDir())
	require.NoError(t, a.Acquire())
	require.NoError(t, b.Acquire())
	assert.NoError(t, a.Release())
	assert.NoError(t, b.Release())
}
