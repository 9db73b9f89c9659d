package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	st, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestFSStorePutGet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Put(ctx, "gtfs_data/routes.txt", []byte("route_id\nRED\n")))

	data, err := st.Get(ctx, "gtfs_data/routes.txt")
	require.NoError(t, err)
	assert.Equal(t, "route_id\nRED\n", string(data))
}

func TestFSStorePutOverwrites(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Put(ctx, "k", []byte("one")))
	require.NoError(t, st.Put(ctx, "k", []byte("two")))

	data, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestFSStoreGetMissing(t *testing.T) {
	_, err := newTestStore(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStoreList(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Put(ctx, "gtfs_expected_cta_schedule/20260101.parquet", []byte("b")))
	require.NoError(t, st.Put(ctx, "gtfs_expected_cta_schedule/20251001.parquet", []byte("a")))
	require.NoError(t, st.Put(ctx, "gtfs_data/trips.txt", []byte("c")))

	keys, err := st.List(ctx, SchedulePrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gtfs_expected_cta_schedule/20251001.parquet",
		"gtfs_expected_cta_schedule/20260101.parquet",
	}, keys)
}

func TestFSStoreDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Put(ctx, "k", []byte("v")))
	require.NoError(t, st.Delete(ctx, "k"))
	_, err := st.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, st.Delete(ctx, "k"))
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	assert.Error(t, st.Put(ctx, "../escape", []byte("x")))
	_, err := st.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)
}

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()
	cp := NewCheckpoint(newTestStore(t), "gtfs_last_modified_time")

	val, err := cp.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, cp.Set(ctx, "2026-08-29T12:00:00Z"))

	val, err = cp.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-29T12:00:00Z", val)
}
