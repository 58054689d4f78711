package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userCols = []string{"id", "name", "email", "role", "hashed_password", "created_at", "updated_at"}
	taskCols = []string{"id", "title", "body", "last_edited_by", "created_at", "updated_at", "id", "name", "email"}
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func testUser() *domain.User {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          "ada@example.com",
		Role:           domain.RoleUser,
		HashedPassword: "$2a$10$hash",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUserStoreCreate(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresUserStore(db, logger.DiscardLogger())
	user := testUser()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(user.ID, user.Name, user.Email, "USER", user.HashedPassword, user.CreatedAt, user.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(context.Background(), user))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
	assert.ErrorIs(t, s.Create(context.Background(), user), store.ErrEmailExists)

	user.HashedPassword = ""
	assert.ErrorIs(t, s.Create(context.Background(), user), store.ErrInvalidEntity)
}

func TestUserStoreGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresUserStore(db, logger.DiscardLogger())
	user := testUser()
	user.Role = domain.RoleAdmin

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			user.ID.String(), user.Name, user.Email, "ADMIN", user.HashedPassword, user.CreatedAt, user.UpdatedAt))

	got, err := s.GetByEmail(context.Background(), "  ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WillReturnError(sql.ErrNoRows)
	_, err = s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserStoreList(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresUserStore(db, logger.DiscardLogger())
	user := testUser()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE (name ILIKE $1 OR email ILIKE $1) AND role = $2")).
		WithArgs("%ada%", "USER").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY name ASC, id LIMIT $3 OFFSET $4")).
		WithArgs("%ada%", "USER", 5, 5).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(
			user.ID.String(), user.Name, user.Email, "USER", user.HashedPassword, user.CreatedAt, user.UpdatedAt))

	users, total, err := s.List(context.Background(),
		store.UserFilter{SearchTerm: "ada", Role: domain.RoleUser},
		store.Pagination{Page: 2, Limit: 5, SortBy: "name", SortOrder: store.SortAsc})

	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, users, 1)
	assert.Equal(t, user.ID, users[0].ID)
}

func TestUserStoreListIgnoresUnknownSortColumn(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresUserStore(db, logger.DiscardLogger())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id LIMIT $1 OFFSET $2")).
		WithArgs(store.DefaultPageLimit, 0).
		WillReturnRows(sqlmock.NewRows(userCols))

	users, total, err := s.List(context.Background(), store.UserFilter{},
		store.Pagination{SortBy: "hashed_password; DROP TABLE users"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)
}

func TestUserStoreUpdateAndDelete(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresUserStore(db, logger.DiscardLogger())
	user := testUser()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Update(context.Background(), user), store.ErrUserNotFound)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
	assert.ErrorIs(t, s.Update(context.Background(), user), store.ErrEmailExists)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs(user.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, s.Delete(context.Background(), user.ID))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Delete(context.Background(), user.ID), store.ErrUserNotFound)
}

func TestTaskStoreGetByIDWithEditor(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTaskStore(db, logger.DiscardLogger())
	taskID, editorID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN users u ON u.id = t.last_edited_by")).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
			taskID.String(), "Title", "Body", editorID.String(), now, now, editorID.String(), "Ada", "ada@example.com"))

	task, err := s.GetByID(context.Background(), taskID)
	require.NoError(t, err)
	assert.Equal(t, "Title", task.Title)
	require.NotNil(t, task.LastEditedBy)
	assert.Equal(t, editorID, *task.LastEditedBy)
	require.NotNil(t, task.Editor)
	assert.Equal(t, domain.Editor{ID: editorID, Name: "Ada", Email: "ada@example.com"}, *task.Editor)
}

func TestTaskStoreListWithoutEditor(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTaskStore(db, logger.DiscardLogger())
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY t.updated_at DESC")).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(uuid.NewString(), "Orphan", "", nil, now, now, nil, nil, nil).
			AddRow(uuid.NewString(), "Older", "b", nil, now.Add(-time.Hour), now.Add(-time.Hour), nil, nil, nil))

	tasks, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Nil(t, tasks[0].LastEditedBy)
	assert.Nil(t, tasks[0].Editor)
	assert.Equal(t, "Older", tasks[1].Title)
}

func TestTaskStoreMutations(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTaskStore(db, logger.DiscardLogger())
	task, err := domain.NewTask("Title", "Body", uuid.New())
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WithArgs(task.ID, task.Title, task.Body, sqlmock.AnyArg(), task.CreatedAt, task.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(context.Background(), task))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})
	assert.ErrorIs(t, s.Create(context.Background(), task), store.ErrInvalidEntity)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tasks")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Update(context.Background(), task), store.ErrTaskNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1")).
		WithArgs(task.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, s.Delete(context.Background(), task.ID))

	task.Title = ""
	assert.ErrorIs(t, s.Create(context.Background(), task), domain.ErrEmptyTitle)
}

func TestTaskStoreWithTx(t *testing.T) {
	db, mock := newMock(t)
	s := NewPostgresTaskStore(db, logger.DiscardLogger())
	taskID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF t")).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(taskID.String(), "T", "", nil, now, now, nil, nil, nil))
	mock.ExpectCommit()

	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		task, err := s.WithTx(tx).GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		assert.Equal(t, taskID, task.ID)
		return nil
	})
	require.NoError(t, err)
}
