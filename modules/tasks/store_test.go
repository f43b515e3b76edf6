package tasks

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newSeededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(DefaultSeed...)
	require.NoError(t, err)
	return store
}

func TestMemoryStore_Seed(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	assert.Equal(t, []Task{{ID: 1, Title: "Laboratory Activity", Desc: "Create Lab Act 2"}}, store.List(ctx))

	_, err := NewMemoryStore(Task{ID: 1}, Task{ID: 1})
	assert.ErrorIs(t, err, ErrTaskIDExists)
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	for _, id := range []int{0, 2, -1, 99} {
		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, ErrTaskNotFound)
		_, err = store.Update(ctx, id, TaskPatch{IsFinished: ptr(true)})
		assert.ErrorIs(t, err, ErrTaskNotFound)
		assert.ErrorIs(t, store.Delete(ctx, id), ErrTaskNotFound)
	}
	assert.Equal(t, 1, store.Len(ctx))
}

func TestMemoryStore_CreateConflictLeavesCollectionUnchanged(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()
	before := store.List(ctx)

	_, err := store.Create(ctx, Task{ID: 1, Title: "Other"})
	assert.ErrorIs(t, err, ErrTaskIDExists)
	assert.Equal(t, before, store.List(ctx))
}

func TestMemoryStore_CreateGetRoundTrip(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, Task{ID: 2, Title: "Write report"})
	require.NoError(t, err)

	got, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, Task{ID: 2, Title: "Write report", Desc: "", IsFinished: false}, got)
}

func TestMemoryStore_InsertionOrder(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []int{5, 3, 9, 1} {
		_, err := store.Create(ctx, Task{ID: id, Title: "t"})
		require.NoError(t, err)
	}
	require.NoError(t, store.Delete(ctx, 3))

	var ids []int
	for _, task := range store.List(ctx) {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []int{5, 9, 1}, ids)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("only is_finished", func(t *testing.T) {
		store := newSeededStore(t)
		updated, err := store.Update(ctx, 1, TaskPatch{IsFinished: ptr(true)})
		require.NoError(t, err)
		assert.Equal(t, Task{ID: 1, Title: "Laboratory Activity", Desc: "Create Lab Act 2", IsFinished: true}, updated)
	})

	t.Run("empty title is ignored and empty desc overwrites", func(t *testing.T) {
		store := newSeededStore(t)
		updated, err := store.Update(ctx, 1, TaskPatch{Title: ptr(""), Desc: ptr("")})
		require.NoError(t, err)
		assert.Equal(t, "Laboratory Activity", updated.Title)
		assert.Equal(t, "", updated.Desc)
		assert.False(t, updated.IsFinished)
	})

	t.Run("patch id does not relocate", func(t *testing.T) {
		store := newSeededStore(t)
		_, err := store.Create(ctx, Task{ID: 2, Title: "second"})
		require.NoError(t, err)

		updated, err := store.Update(ctx, 1, TaskPatch{ID: ptr(7), Title: ptr("renamed")})
		require.NoError(t, err)
		assert.Equal(t, 1, updated.ID)

		list := store.List(ctx)
		assert.Equal(t, "renamed", list[0].Title)
		assert.Equal(t, 2, list[1].ID)
	})
}

func TestMemoryStore_ListReturnsCopy(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()

	list := store.List(ctx)
	list[0].Title = "mutated"

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Laboratory Activity", got.Title)
}

func TestMemoryStore_Summary(t *testing.T) {
	store := newSeededStore(t)
	ctx := context.Background()
	_, err := store.Create(ctx, Task{ID: 2, Title: "done", IsFinished: true})
	require.NoError(t, err)
	_, err = store.Create(ctx, Task{ID: 3, Title: "open"})
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 3, Finished: 1, Open: 2}, store.Summary(ctx))
}

func TestMemoryStore_ConcurrentCreateKeepsIDsUnique(t *testing.T) {
	store, err := NewMemoryStore()
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(ctx, Task{ID: 42, Title: "race"}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, store.Len(ctx))
}

type recordedEvent struct {
	eventType string
	data      map[string]any
}

func TestEventingStore(t *testing.T) {
	ctx := context.Background()
	var events []recordedEvent
	store := NewEventingStore(newSeededStore(t), func(_ context.Context, eventType string, data map[string]any) {
		events = append(events, recordedEvent{eventType, data})
	})

	_, err := store.Create(ctx, Task{ID: 2, Title: "new"})
	require.NoError(t, err)
	_, err = store.Create(ctx, Task{ID: 2, Title: "dup"})
	require.ErrorIs(t, err, ErrTaskIDExists)
	_, err = store.Update(ctx, 2, TaskPatch{IsFinished: ptr(true)})
	require.NoError(t, err)
	_, err = store.Update(ctx, 9, TaskPatch{})
	require.ErrorIs(t, err, ErrTaskNotFound)
	require.NoError(t, store.Delete(ctx, 1))
	require.ErrorIs(t, store.Delete(ctx, 1), ErrTaskNotFound)
	_, err = store.Get(ctx, 2)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, EventTypeTaskCreated, events[0].eventType)
	assert.Equal(t, Task{ID: 2, Title: "new"}, events[0].data["task"])
	assert.Equal(t, EventTypeTaskUpdated, events[1].eventType)
	assert.Equal(t, Task{ID: 2, Title: "new", IsFinished: true}, events[1].data["task"])
	assert.Equal(t, EventTypeTaskDeleted, events[2].eventType)
	assert.Equal(t, 1, events[2].data["task_id"])
}
