package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/lock"
)

// LockReader exposes the current lock table.
type LockReader interface {
	Snapshot() map[string]lock.HolderView
}

// LockHandler serves the lock table to clients that are not on the websocket.
type LockHandler struct {
	locks  LockReader
	logger *slog.Logger
}

// NewLockHandler creates a new LockHandler
func NewLockHandler(locks LockReader, logger *slog.Logger) *LockHandler {
	if locks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("locks cannot be nil for LockHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LockHandler{
		locks:  locks,
		logger: logger.With(slog.String("component", "lock_handler")),
	}
}

// ListLocks handles GET /locks. The data has the same shape as the
// initial-locks websocket event: task ID to holder.
func (h *LockHandler) ListLocks(w http.ResponseWriter, r *http.Request) {
	snap := h.locks.Snapshot()
	shared.RespondWithSuccess(w, r, http.StatusOK, "Locks retrieved successfully", snap)
}
