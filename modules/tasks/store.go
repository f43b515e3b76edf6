package tasks

import (
	"context"
	"fmt"
	"sync"
)

// Store owns the task collection. Implementations keep insertion order
// and unique ids.
type Store interface {
	List(ctx context.Context) []Task
	Get(ctx context.Context, id int) (Task, error)
	Create(ctx context.Context, task Task) (Task, error)
	Update(ctx context.Context, id int, patch TaskPatch) (Task, error)
	Delete(ctx context.Context, id int) error
	Len(ctx context.Context) int
	Summary(ctx context.Context) Summary
}

// MemoryStore is an in-memory Store. Every read-modify-write runs under the
// lock, so the duplicate check and the append in Create are atomic.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []Task
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding a copy of seed. Duplicate ids in
// seed are rejected.
func NewMemoryStore(seed ...Task) (*MemoryStore, error) {
	s := &MemoryStore{tasks: make([]Task, 0, len(seed))}
	for _, t := range seed {
		if s.indexOf(t.ID) >= 0 {
			return nil, fmt.Errorf("%w: %d", ErrTaskIDExists, t.ID)
		}
		s.tasks = append(s.tasks, t)
	}
	return s, nil
}

func (s *MemoryStore) indexOf(id int) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns a copy of the collection in insertion order.
func (s *MemoryStore) List(context.Context) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Task(nil), s.tasks...)
}

func (s *MemoryStore) Get(_ context.Context, id int) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return s.tasks[i], nil
}

// Create appends task to the end of the collection.
func (s *MemoryStore) Create(_ context.Context, task Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(task.ID) >= 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskIDExists, task.ID)
	}
	s.tasks = append(s.tasks, task)
	return task, nil
}

// Update applies patch to the task in place. Its position is unchanged.
func (s *MemoryStore) Update(_ context.Context, id int, patch TaskPatch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	patch.apply(&s.tasks[i])
	return s.tasks[i], nil
}

// Delete removes the task, preserving the order of the others.
func (s *MemoryStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return nil
}

func (s *MemoryStore) Len(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *MemoryStore) Summary(context.Context) Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.IsFinished {
			sum.Finished++
		}
	}
	sum.Open = sum.Total - sum.Finished
	return sum
}
