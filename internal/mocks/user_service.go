package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockUserService is a testify mock of service.UserService for handler tests.
type MockUserService struct {
	mock.Mock
}

var _ service.UserService = (*MockUserService)(nil)

func userArg(args mock.Arguments, i int) *domain.User {
	if u, ok := args.Get(i).(*domain.User); ok {
		return u
	}
	return nil
}

// Register implements service.UserService.
func (m *MockUserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	args := m.Called(ctx, name, email, password)
	return userArg(args, 0), args.Error(1)
}

// Authenticate implements service.UserService.
func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	return userArg(args, 0), args.Error(1)
}

// GetUser implements service.UserService.
func (m *MockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	return userArg(args, 0), args.Error(1)
}

// ListUsers implements service.UserService.
func (m *MockUserService) ListUsers(
	ctx context.Context,
	filter store.UserFilter,
	page store.Pagination,
) ([]*domain.User, int, error) {
	args := m.Called(ctx, filter, page)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Int(1), args.Error(2)
}

// CreateUser implements service.UserService.
func (m *MockUserService) CreateUser(ctx context.Context, input service.NewUserInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	return userArg(args, 0), args.Error(1)
}

// UpdateUser implements service.UserService.
func (m *MockUserService) UpdateUser(
	ctx context.Context,
	userID uuid.UUID,
	changes service.UserChanges,
) (*domain.User, error) {
	args := m.Called(ctx, userID, changes)
	return userArg(args, 0), args.Error(1)
}

// DeleteUser implements service.UserService.
func (m *MockUserService) DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	return userArg(args, 0), args.Error(1)
}
