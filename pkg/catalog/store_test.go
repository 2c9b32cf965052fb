package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenMigratesSchema(t *testing.T) {
	store := openTestStore(t)
	require.NotNil(t, store)
}

func TestRecordBuildStartAndFinish(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	require.NoError(t, store.RecordBuildStart(ctx, "build-1", "/seg/1", "age", "integer", "int,int_map", now))
	require.NoError(t, store.RecordBuildFinish(ctx, "build-1", 42, now.Add(time.Second), nil))
}

func TestRecordBuildFinishWithError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	require.NoError(t, store.RecordBuildStart(ctx, "build-2", "/seg/1", "color", "keyword", "keyword", now))
	require.NoError(t, store.RecordBuildFinish(ctx, "build-2", 0, now, assert.AnError))
}

func TestCachePayloadBlockCountUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0).UTC()

	require.NoError(t, store.CachePayloadBlockCount(ctx, "/seg/1", "color", 10, 3, now))
	require.NoError(t, store.CachePayloadBlockCount(ctx, "/seg/1", "color", 10, 7, now.Add(time.Minute)))
}

func TestNilStoreMethodsAreNoOps(t *testing.T) {
	var store *Store
	ctx := context.Background()
	now := time.Now()

	assert.NoError(t, store.RecordBuildStart(ctx, "x", "p", "k", "integer", "int", now))
	assert.NoError(t, store.RecordBuildFinish(ctx, "x", 0, now, nil))
	assert.NoError(t, store.CachePayloadBlockCount(ctx, "p", "k", 1, 1, now))
	assert.NoError(t, store.Close())
}

func TestBuildDSNVariants(t *testing.T) {
	dsn, err := buildDSN(Config{Path: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", dsn)

	dsn, err = buildDSN(Config{URL: "libsql://example.turso.io", AuthToken: "secret"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "authToken=secret")

	_, err = buildDSN(Config{})
	assert.Error(t, err)
}
