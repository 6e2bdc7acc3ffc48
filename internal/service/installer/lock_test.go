package installer

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLock covers acquisition, stale takeover and a live holder.
func TestLock(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), ".owl_brain")
	path := filepath.Join(dir, lockFilename)

	lock, err := AcquireLock(dir)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(contents))

	// The owner may take its own lock again.
	_, err = AcquireLock(dir)
	require.NoError(t, err)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	// A dead holder and a garbled file are stale.
	for _, stale := range []string{"2147483646", "not a pid"} {
		require.NoError(t, os.WriteFile(path, []byte(stale), 0o600))

		lock, err = AcquireLock(dir)
		require.NoError(t, err, stale)
		require.NoError(t, lock.Release())
	}

	// The parent of the test binary is alive.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o600))

	_, err = AcquireLock(dir)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}
