package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service"
)

// UserHandler handles profile and user administration requests.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("users cannot be nil for UserHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// GetProfile handles GET /users/profile for the authenticated user.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get profile")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, "Profile fetched successfully", user)
}

// ListUsers handles GET /users with searchTerm, role, email, page, limit,
// sortBy and sortOrder query parameters.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter, page := userListQuery(r)

	users, total, err := h.users.ListUsers(r.Context(), filter, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}
	if users == nil {
		users = []*domain.User{}
	}

	shared.RespondWithPage(w, r, "Users fetched successfully",
		shared.PageMeta{Page: page.Page, Limit: page.Limit, Total: total}, users)
}

// GetUser handles GET /users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := requirePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get user")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, "User fetched successfully", user)
}

// CreateUser handles POST /users. Unlike registration it accepts a role.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if !h.canGrant(r, domain.Role(req.Role)) {
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, GetSafeErrorMessage(domain.ErrForbidden),
			domain.ErrForbidden, shared.WithElevatedLogLevel())
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Input())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusCreated, "User created successfully", user)
}

// UpdateUser handles PATCH /users/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := requirePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if req.Role != nil && !h.canGrant(r, domain.Role(*req.Role)) {
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, GetSafeErrorMessage(domain.ErrForbidden),
			domain.ErrForbidden, shared.WithElevatedLogLevel())
		return
	}

	user, err := h.users.UpdateUser(r.Context(), id, req.Changes())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}
	shared.RespondWithSuccess(w, r, http.StatusOK, "User updated successfully", user)
}

// DeleteUser handles DELETE /users/{id} and returns the deleted user.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := requirePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	user, err := h.users.DeleteUser(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	log.Info("user deleted", slog.String("deleted_user_id", id.String()))
	shared.RespondWithSuccess(w, r, http.StatusOK, "User deleted successfully", user)
}

// canGrant reports whether the caller may assign role. Only a super admin
// can hand out SUPER_ADMIN.
func (h *UserHandler) canGrant(r *http.Request, role domain.Role) bool {
	if role != domain.RoleSuperAdmin {
		return true
	}
	callerRole, ok := shared.RoleFromContext(r.Context())
	return ok && callerRole == domain.RoleSuperAdmin
}
