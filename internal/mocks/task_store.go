package mocks

import (
	"context"
	"database/sql"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
// Function fields override the default map-backed behavior.
type MockTaskStore struct {
	CreateFn       func(ctx context.Context, task *domain.Task) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	GetForUpdateFn func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListFn         func(ctx context.Context) ([]*domain.Task, error)
	UpdateFn       func(ctx context.Context, task *domain.Task) error
	DeleteFn       func(ctx context.Context, id uuid.UUID) error

	Tasks map[uuid.UUID]*domain.Task

	// Editors, when set, is used to fill Task.Editor on reads.
	Editors map[uuid.UUID]domain.Editor

	WithTxCalls int
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates a new mock store holding tasks.
func NewMockTaskStore(tasks ...*domain.Task) *MockTaskStore {
	m := &MockTaskStore{
		Tasks:   make(map[uuid.UUID]*domain.Task),
		Editors: make(map[uuid.UUID]domain.Editor),
	}
	for _, t := range tasks {
		m.Tasks[t.ID] = t
	}
	return m
}

// Create implements the TaskStore interface
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	cp := *task
	m.Tasks[task.ID] = &cp
	return nil
}

// GetByID implements the TaskStore interface
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return m.read(id)
}

// GetForUpdate implements the TaskStore interface
func (m *MockTaskStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, id)
	}
	return m.read(id)
}

// List implements the TaskStore interface
func (m *MockTaskStore) List(ctx context.Context) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	tasks := make([]*domain.Task, 0, len(m.Tasks))
	for id := range m.Tasks {
		t, _ := m.read(id)
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
	return tasks, nil
}

// Update implements the TaskStore interface
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	if _, ok := m.Tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	cp := *task
	m.Tasks[task.ID] = &cp
	return nil
}

// Delete implements the TaskStore interface
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	if _, ok := m.Tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.Tasks, id)
	return nil
}

// WithTx implements the TaskStore interface. The mock ignores the transaction.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	m.WithTxCalls++
	return m
}

// read returns a copy of the stored task with its editor filled in.
func (m *MockTaskStore) read(id uuid.UUID) (*domain.Task, error) {
	t, ok := m.Tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *t
	if cp.LastEditedBy != nil {
		if e, ok := m.Editors[*cp.LastEditedBy]; ok {
			cp.Editor = &e
		}
	}
	return &cp, nil
}
