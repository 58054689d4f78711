package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockTaskService is a testify mock of service.TaskService for handler tests.
type MockTaskService struct {
	mock.Mock
}

var _ service.TaskService = (*MockTaskService)(nil)

func taskArg(args mock.Arguments, i int) *domain.Task {
	if t, ok := args.Get(i).(*domain.Task); ok {
		return t
	}
	return nil
}

// CreateTask implements service.TaskService.
func (m *MockTaskService) CreateTask(ctx context.Context, actorID uuid.UUID, title, body string) (*domain.Task, error) {
	args := m.Called(ctx, actorID, title, body)
	return taskArg(args, 0), args.Error(1)
}

// ListTasks implements service.TaskService.
func (m *MockTaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	args := m.Called(ctx)
	tasks, _ := args.Get(0).([]*domain.Task)
	return tasks, args.Error(1)
}

// GetTask implements service.TaskService.
func (m *MockTaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	return taskArg(args, 0), args.Error(1)
}

// UpdateTask implements service.TaskService.
func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	id, actorID uuid.UUID,
	changes domain.TaskChanges,
) (*domain.Task, error) {
	args := m.Called(ctx, id, actorID, changes)
	return taskArg(args, 0), args.Error(1)
}

// DeleteTask implements service.TaskService.
func (m *MockTaskService) DeleteTask(ctx context.Context, id, actorID uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id, actorID)
	return taskArg(args, 0), args.Error(1)
}
