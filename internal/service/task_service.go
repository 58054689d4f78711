package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/store"
)

// TaskService provides task CRUD. Mutations stamp the acting user as the
// last editor and emit a task event once committed.
type TaskService interface {
	// CreateTask creates a task authored by actorID.
	CreateTask(ctx context.Context, actorID uuid.UUID, title, body string) (*domain.Task, error)

	// ListTasks returns every task, most recently updated first.
	ListTasks(ctx context.Context) ([]*domain.Task, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// UpdateTask applies a partial update on behalf of actorID.
	UpdateTask(ctx context.Context, id, actorID uuid.UUID, changes domain.TaskChanges) (*domain.Task, error)

	// DeleteTask removes a task and returns it as it was before deletion.
	DeleteTask(ctx context.Context, id, actorID uuid.UUID) (*domain.Task, error)
}

type taskServiceImpl struct {
	tasks   store.TaskStore
	db      *sql.DB
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewTaskService creates a TaskService. It returns an error if a required
// dependency is nil.
func NewTaskService(
	tasks store.TaskStore,
	db *sql.DB,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "task store cannot be nil"}
	}
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskServiceImpl{
		tasks:   tasks,
		db:      db,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "task_service")),
	}, nil
}

func (s *taskServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(ctx context.Context, actorID uuid.UUID, title, body string) (*domain.Task, error) {
	task, err := domain.NewTask(title, body, actorID)
	if err != nil {
		return nil, err
	}

	var created *domain.Task
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.tasks.WithTx(tx)
		if err := txStore.Create(ctx, task); err != nil {
			return err
		}
		// Re-read to pick up the editor summary.
		created, err = txStore.GetByID(ctx, task.ID)
		return err
	})
	if err != nil {
		s.log(ctx).Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", actorID.String()))
		return nil, NewServiceError("create_task", "failed to save task", err)
	}

	s.log(ctx).Info("task created",
		slog.String("task_id", created.ID.String()),
		slog.String("user_id", actorID.String()))
	s.emit(ctx, events.TaskCreated, created.ID, actorID, created)
	return created, nil
}

// ListTasks implements TaskService.
func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		s.log(ctx).Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, NewServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}

// GetTask implements TaskService.
func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			s.log(ctx).Error("failed to get task",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
		}
		return nil, NewServiceError("get_task", "failed to get task", err)
	}
	return task, nil
}

// UpdateTask implements TaskService. The row is locked for the duration of
// the read-modify-write.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	id, actorID uuid.UUID,
	changes domain.TaskChanges,
) (*domain.Task, error) {
	if changes.Empty() {
		return nil, domain.ErrNoTaskChanges
	}

	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.tasks.WithTx(tx)

		task, err := txStore.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := task.Apply(changes, actorID); err != nil {
			return err
		}
		if err := txStore.Update(ctx, task); err != nil {
			return err
		}
		updated, err = txStore.GetByID(ctx, id)
		return err
	})
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return nil, err
		}
		if !errors.Is(err, store.ErrTaskNotFound) {
			s.log(ctx).Error("failed to update task",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
		}
		return nil, NewServiceError("update_task", "failed to update task", err)
	}

	s.log(ctx).Info("task updated",
		slog.String("task_id", id.String()),
		slog.String("user_id", actorID.String()))
	s.emit(ctx, events.TaskUpdated, id, actorID, updated)
	return updated, nil
}

// DeleteTask implements TaskService.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, id, actorID uuid.UUID) (*domain.Task, error) {
	var deleted *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.tasks.WithTx(tx)

		task, err := txStore.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := txStore.Delete(ctx, id); err != nil {
			return err
		}
		deleted = task
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			s.log(ctx).Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.String("task_id", id.String()))
		}
		return nil, NewServiceError("delete_task", "failed to delete task", err)
	}

	s.log(ctx).Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("user_id", actorID.String()))
	s.emit(ctx, events.TaskDeleted, id, actorID, nil)
	return deleted, nil
}

// emit publishes a committed change. Failures are logged; the change itself
// already succeeded.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, taskID, actorID uuid.UUID, task *domain.Task) {
	var payload interface{}
	if task != nil {
		payload = task
	}
	event, err := events.NewTaskEvent(eventType, taskID, actorID, payload)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		s.log(ctx).Error("failed to emit task event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType),
			slog.String("task_id", taskID.String()))
	}
}
