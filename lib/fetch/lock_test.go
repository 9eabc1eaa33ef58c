package fetch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "walland")

	lock, err := LockDir(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, lockName))
	assert.NoError(t, err)

	// flock locks belong to the open file description, so a second open in
	// the same process conflicts just like another process would.
	_, ok, err := TryLockDir(dir)
	require.NoError(t, err)
	assert.False(t, ok, "lock is held")

	require.NoError(t, lock.Unlock())

	again, ok, err := TryLockDir(dir)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, again.Unlock())
}

func TestLock_UnlockNil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Unlock())
}
