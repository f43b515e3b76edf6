package tasks

import (
	"context"
)

// Event types emitted by the tasks module.
const (
	EventTypeTaskCreated  = "com.taskapi.task.created"
	EventTypeTaskUpdated  = "com.taskapi.task.updated"
	EventTypeTaskDeleted  = "com.taskapi.task.deleted"
	EventTypeTasksSummary = "com.taskapi.tasks.summary"
)

// EventEmitter publishes an event with the given type and payload.
type EventEmitter func(ctx context.Context, eventType string, data map[string]any)

// eventingStore decorates a Store, emitting an event after every successful
// mutation. Failed operations emit nothing.
type eventingStore struct {
	Store
	emit EventEmitter
}

// NewEventingStore wraps store so that creates, updates and deletes are
// published through emit.
func NewEventingStore(store Store, emit EventEmitter) Store {
	return &eventingStore{Store: store, emit: emit}
}

func (s *eventingStore) Create(ctx context.Context, task Task) (Task, error) {
	created, err := s.Store.Create(ctx, task)
	if err != nil {
		return created, err
	}
	s.emit(ctx, EventTypeTaskCreated, map[string]any{"task": created})
	return created, nil
}

func (s *eventingStore) Update(ctx context.Context, id int, patch TaskPatch) (Task, error) {
	updated, err := s.Store.Update(ctx, id, patch)
	if err != nil {
		return updated, err
	}
	s.emit(ctx, EventTypeTaskUpdated, map[string]any{"task": updated})
	return updated, nil
}

func (s *eventingStore) Delete(ctx context.Context, id int) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, EventTypeTaskDeleted, map[string]any{"task_id": id})
	return nil
}
