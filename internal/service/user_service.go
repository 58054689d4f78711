package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
)

// NewUserInput carries the fields of an administratively created user.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	// Role defaults to domain.RoleUser when empty.
	Role domain.Role
}

// UserChanges is a partial user update; nil fields are left untouched.
type UserChanges struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// UserService provides account operations.
type UserService interface {
	// Register creates a USER-role account.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)

	// Authenticate returns the user matching the credentials or ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ListUsers returns one page of users and the total number of matches.
	ListUsers(ctx context.Context, filter store.UserFilter, page store.Pagination) ([]*domain.User, int, error)

	// CreateUser creates a user with any role.
	CreateUser(ctx context.Context, input NewUserInput) (*domain.User, error)

	// UpdateUser applies a partial update. A new password is hashed before storage.
	UpdateUser(ctx context.Context, userID uuid.UUID, changes UserChanges) (*domain.User, error)

	// DeleteUser deletes a user and returns it as it was before deletion.
	DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	verifier  auth.PasswordVerifier
	db        *sql.DB
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	db *sql.DB,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		verifier:  verifier,
		db:        db,
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

func (s *UserServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.CreateUser(ctx, NewUserInput{Name: name, Email: email, Password: password, Role: domain.RoleUser})
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.log(ctx).Debug("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		s.log(ctx).Error("failed to retrieve user by email", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		s.log(ctx).Debug("login attempt with wrong password", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser implements UserService.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.log(ctx).Error("failed to retrieve user",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// ListUsers implements UserService.
func (s *UserServiceImpl) ListUsers(
	ctx context.Context,
	filter store.UserFilter,
	page store.Pagination,
) ([]*domain.User, int, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, domain.ErrInvalidRole
	}

	users, total, err := s.userStore.List(ctx, filter, page.Normalize())
	if err != nil {
		s.log(ctx).Error("failed to list users", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// CreateUser implements UserService.
func (s *UserServiceImpl) CreateUser(ctx context.Context, input NewUserInput) (*domain.User, error) {
	user, err := domain.NewUser(input.Name, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	if err := s.hashPassword(user); err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.log(ctx).Debug("attempted to create user with existing email")
		} else {
			s.log(ctx).Error("failed to save user to database", slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log(ctx).Info("user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return user, nil
}

// UpdateUser implements UserService.
// Following the pattern of getting the complete user first, then updating the
// requested fields and passing the complete user back to the store.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID uuid.UUID, changes UserChanges) (*domain.User, error) {
	var updated *domain.User
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if changes.Name != nil {
			user.Name = strings.TrimSpace(*changes.Name)
		}
		if changes.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*changes.Email))
		}
		if changes.Role != nil {
			user.Role = *changes.Role
		}
		if changes.Password != nil {
			user.Password = *changes.Password
		}
		if err := user.Validate(); err != nil {
			return err
		}
		if err := s.hashPassword(user); err != nil {
			return err
		}
		user.UpdatedAt = time.Now().UTC()

		if err := txStore.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) && !errors.Is(err, store.ErrEmailExists) &&
			!errors.Is(err, domain.ErrValidation) {
			s.log(ctx).Error("failed to update user",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.log(ctx).Info("user updated", slog.String("user_id", userID.String()))
	return updated, nil
}

// DeleteUser implements UserService.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var deleted *domain.User
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := txStore.Delete(ctx, userID); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.log(ctx).Error("failed to delete user",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	s.log(ctx).Info("user deleted", slog.String("user_id", userID.String()))
	return deleted, nil
}

// hashPassword replaces a pending plaintext password with its hash.
func (s *UserServiceImpl) hashPassword(user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hash
	user.Password = ""
	return nil
}
