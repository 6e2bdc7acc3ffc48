package registration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/owl-installer/internal/config"
)

// openBoth returns one repository of each backend, closed on cleanup.
func openBoth(t *testing.T) map[string]Repository {
	t.Helper()

	dir := t.TempDir()
	repos := make(map[string]Repository, 2)

	for driver, name := range map[string]string{
		config.StoreDriverJSON:   "users.json",
		config.StoreDriverSQLite: "users.db",
	} {
		repo, err := Open(context.Background(), driver, filepath.Join(dir, name))
		require.NoError(t, err)

		t.Cleanup(func() {
			_ = repo.Close()
		})

		repos[driver] = repo
	}

	return repos
}

// TestRepository_OverwriteAndCount checks that equal keys overwrite and distinct keys add.
func TestRepository_OverwriteAndCount(t *testing.T) {
	t.Parallel()

	for driver, repo := range openBoth(t) {
		ctx := context.Background()

		count, err := repo.Count(ctx)
		require.NoError(t, err, driver)
		require.Zero(t, count, driver)

		count, err = repo.Put(ctx, "h1_t1", json.RawMessage(`{"host":"h1","timestamp":"t1","x":1}`))
		require.NoError(t, err, driver)
		require.Equal(t, 1, count, driver)

		count, err = repo.Put(ctx, "h1_t1", json.RawMessage(`{"host":"h1","timestamp":"t1","x":2}`))
		require.NoError(t, err, driver)
		require.Equal(t, 1, count, driver)

		count, err = repo.Put(ctx, "h1_t2", json.RawMessage(`{"host":"h1","timestamp":"t2"}`))
		require.NoError(t, err, driver)
		require.Equal(t, 2, count, driver)

		count, err = repo.Count(ctx)
		require.NoError(t, err, driver)
		require.Equal(t, 2, count, driver)
	}
}

// TestFileRepository_PersistsLatestPayload reads the document back from disk.
func TestFileRepository_PersistsLatestPayload(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")
	repo := NewFileRepository(path)

	_, err := repo.Put(context.Background(), "h1_t1", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	_, err = repo.Put(context.Background(), "h1_t1", json.RawMessage(`{"x":2}`))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var stored map[string]map[string]int
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Equal(t, map[string]map[string]int{"h1_t1": {"x": 2}}, stored)
}

// TestFileRepository_CorruptStoreIsNotOverwritten refuses writes over an unreadable document.
func TestFileRepository_CorruptStoreIsNotOverwritten(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("[1, 2"), 0o600))

	repo := NewFileRepository(path)

	_, err := repo.Put(context.Background(), "k", json.RawMessage(`{}`))
	require.ErrorIs(t, err, ErrCorruptStore)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[1, 2", string(data))
}

// TestSQLiteRepository_Payload returns the latest stored payload.
func TestSQLiteRepository_Payload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	repo, err := NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)

	defer func() {
		_ = repo.Close()
	}()

	_, err = repo.Put(ctx, "h1_t1", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	_, err = repo.Put(ctx, "h1_t1", json.RawMessage(`{"x":2}`))
	require.NoError(t, err)

	payload, err := repo.Payload(ctx, "h1_t1")
	require.NoError(t, err)
	require.JSONEq(t, `{"x":2}`, string(payload))
}

// TestOpen_UnknownDriver rejects unsupported drivers.
func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "postgres", "x")
	require.ErrorIs(t, err, ErrUnknownDriver)
}
