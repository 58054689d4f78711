package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized, "Token expired"},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
		{"wrong token type", auth.ErrWrongTokenType, http.StatusUnauthorized, "Invalid refresh token"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "Insufficient permissions"},
		{"task not found", service.ErrTaskNotFound, http.StatusNotFound, "Task not found"},
		{"wrapped store task not found", fmt.Errorf("load: %w", store.ErrTaskNotFound), http.StatusNotFound, "Task not found"},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{"email exists", store.ErrEmailExists, http.StatusConflict, "Email already exists"},
		{"validation", domain.ErrEmptyTitle, http.StatusBadRequest, "Invalid title: cannot be empty"},
		{"invalid role", domain.ErrInvalidRole, http.StatusBadRequest, "Invalid role: must be one of USER, ADMIN, SUPER_ADMIN"},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest, "Invalid entity data"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.msg, GetSafeErrorMessage(tt.err))
		})
	}

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestHandleAPIErrorDoesNotLeak(t *testing.T) {
	log, buf := logger.NewTestLogger(t)
	err := &service.ServiceError{
		Operation: "update_task",
		Message:   "failed to persist",
		Err:       errors.New("pq: password=letmein host=/var/run/postgresql"),
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/tasks/1", nil)
	req = req.WithContext(logger.WithContext(req.Context(), log))
	HandleAPIError(rr, req, err, "Failed to update task")

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to update task", decodeError(t, rr).Error)
	assert.NotContains(t, rr.Body.String(), "letmein")
	assert.NotContains(t, buf.String(), "letmein")
	assert.Contains(t, buf.String(), "update_task failed")
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(&LoginRequest{Email: "nope", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Invalid Email: invalid email format", SanitizeValidationError(err))
	assert.Equal(t, "Invalid name: cannot be empty", SanitizeValidationError(domain.ErrEmptyName))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
}
