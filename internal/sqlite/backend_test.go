package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasarvit/listmap/pkg/listmap"
)

func openBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newTaskType(t *testing.T, b *Backend) *listmap.RecordType {
	t.Helper()
	rt, err := listmap.New(b, "tasks", nil)
	require.NoError(t, err)
	return rt
}

func createTask(t *testing.T, rt *listmap.RecordType, fields map[string]any) *listmap.Record {
	t.Helper()
	ctx := context.Background()
	item := rt.NewRecord(fields)
	res, err := rt.Create(ctx, item, nil)
	require.NoError(t, err)
	_, err = res.Await(ctx)
	require.NoError(t, err)
	return item
}

func TestBackend_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t)
	rt := newTaskType(t, b)

	item := createTask(t, rt, map[string]any{"Title": "first"})
	assert.Equal(t, float64(1), item.Meta.ID, "ids are allocated per list starting at 1")
	assert.NotEmpty(t, item.Meta.ETag, "create captures the minted concurrency token")
	assert.False(t, item.IsNew())

	second := createTask(t, rt, map[string]any{"Title": "second"})
	assert.Equal(t, float64(2), second.Meta.ID)
	assert.NotEqual(t, item.Meta.ETag, second.Meta.ETag)

	res, err := rt.Get(ctx, 1, nil)
	require.NoError(t, err)
	_, err = res.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", res.Record.Fields["Title"])
	assert.Equal(t, item.Meta.ETag, res.Record.Meta.ETag)
}

func TestBackend_GetMissing(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t)
	rt := newTaskType(t, b)

	res, err := rt.Get(ctx, 42, nil)
	require.NoError(t, err)
	_, err = res.Await(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, res.Resolved())
}

func TestBackend_Query(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t)
	rt := newTaskType(t, b)

	createTask(t, rt, map[string]any{"Title": "a", "Done": true, "Priority": 3})
	createTask(t, rt, map[string]any{"Title": "b", "Done": false, "Priority": 1})
	createTask(t, rt, map[string]any{"Title": "c", "Done": true, "Priority": 2})

	t.Run("all items in id order", func(t *testing.T) {
		res, err := rt.Query(ctx, nil)
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)
		require.Len(t, res.Records, 3)
		assert.Equal(t, "a", res.Records[0].Fields["Title"])
		assert.Equal(t, "c", res.Records[2].Fields["Title"])
	})

	t.Run("filter", func(t *testing.T) {
		res, err := rt.Query(ctx, listmap.Query{"filter": "Done eq true"})
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)
		require.Len(t, res.Records, 2)
		assert.Equal(t, "a", res.Records[0].Fields["Title"])
		assert.Equal(t, "c", res.Records[1].Fields["Title"])
	})

	t.Run("orderby desc with top", func(t *testing.T) {
		res, err := rt.Query(ctx, listmap.Query{"orderby": "Priority desc", "top": 2})
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)
		require.Len(t, res.Records, 2)
		assert.Equal(t, "a", res.Records[0].Fields["Title"])
		assert.Equal(t, "c", res.Records[1].Fields["Title"])
	})

	t.Run("skip", func(t *testing.T) {
		res, err := rt.Query(ctx, listmap.Query{"skip": 2})
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		assert.Equal(t, "c", res.Records[0].Fields["Title"])
	})

	t.Run("select projects but keeps the token", func(t *testing.T) {
		res, err := rt.Query(ctx, listmap.Query{"select": "Title", "top": 1})
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		rec := res.Records[0]
		assert.Equal(t, "a", rec.Fields["Title"])
		assert.NotContains(t, rec.Fields, "Priority")
		assert.NotEmpty(t, rec.Meta.ETag)
	})

	t.Run("records belong to the type", func(t *testing.T) {
		res, err := rt.QueryOne(ctx, listmap.Query{"filter": "Title eq 'b'"})
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)

		res.Record.Set("Done", true)
		saved, err := res.Record.Save(ctx, nil)
		require.NoError(t, err)
		_, err = saved.Await(ctx)
		require.NoError(t, err)
	})
}

func TestBackend_UpdateConcurrency(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t)
	rt := newTaskType(t, b)

	item := createTask(t, rt, map[string]any{"Title": "x"})
	firstTag := item.Meta.ETag

	t.Run("matching token succeeds and rotates", func(t *testing.T) {
		item.Set("Title", "y")
		res, err := rt.Update(ctx, item, nil)
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, firstTag, item.Meta.ETag, "fresh token captured from the response header")
	})

	t.Run("stale token rejected", func(t *testing.T) {
		stale := rt.NewRecord(map[string]any{"Id": item.Meta.ID, "Title": "z"})
		stale.Meta.ETag = firstTag

		res, err := rt.Update(ctx, stale, nil)
		require.NoError(t, err)
		_, err = res.Await(ctx)
		assert.ErrorIs(t, err, ErrConflict)
		assert.False(t, res.Resolved())
	})

	t.Run("force bypasses the check", func(t *testing.T) {
		stale := rt.NewRecord(map[string]any{"Id": item.Meta.ID, "Title": "forced"})
		stale.Meta.ETag = firstTag

		res, err := rt.Update(ctx, stale, &listmap.UpdateOptions{Force: true})
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)

		got, err := rt.Get(ctx, item.Meta.ID, nil)
		require.NoError(t, err)
		_, err = got.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "forced", got.Record.Fields["Title"])
	})
}

func TestBackend_Delete(t *testing.T) {
	ctx := context.Background()
	b := openBackend(t)
	rt := newTaskType(t, b)

	item := createTask(t, rt, map[string]any{"Title": "x"})

	t.Run("stale token rejected", func(t *testing.T) {
		stale := rt.NewRecord(map[string]any{"Id": item.Meta.ID})
		stale.Meta.ETag = "bogus"

		res, err := rt.Delete(ctx, stale)
		require.NoError(t, err)
		_, err = res.Await(ctx)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("delete then get reports not found", func(t *testing.T) {
		res, err := rt.Delete(ctx, item)
		require.NoError(t, err)
		_, err = res.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "x", item.Fields["Title"], "fields survive logical removal")

		got, err := rt.Get(ctx, item.Meta.ID, nil)
		require.NoError(t, err)
		_, err = got.Await(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBackend_ListsAreIndependent(t *testing.T) {
	b := openBackend(t)
	tasks := newTaskType(t, b)
	rooms, err := listmap.New(b, "rooms", nil)
	require.NoError(t, err)

	createTask(t, tasks, map[string]any{"Title": "t"})
	room := createTask(t, rooms, map[string]any{"Name": "r"})
	assert.Equal(t, float64(1), room.Meta.ID, "id sequences are per list")
}
