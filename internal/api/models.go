package api

import (
	"time"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/service"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest is the optional body of the refresh endpoint. The
// refreshToken cookie is used when the body is empty.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// AccessToken is the JWT used for API and websocket authorization.
	AccessToken string `json:"accessToken"`

	// RefreshToken is also set as an HttpOnly cookie.
	RefreshToken string `json:"refreshToken,omitempty"`

	// ExpiresAt is the ISO 8601 timestamp when the access token expires
	ExpiresAt string `json:"expiresAt"`

	User *domain.User `json:"user,omitempty"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body"  validate:"max=10000"`
}

// UpdateTaskRequest is a partial task update; absent fields are left untouched.
type UpdateTaskRequest struct {
	Title *string `json:"title" validate:"omitempty,max=200"`
	Body  *string `json:"body"  validate:"omitempty,max=10000"`
}

// Changes converts the request into domain changes.
func (r UpdateTaskRequest) Changes() domain.TaskChanges {
	return domain.TaskChanges{Title: r.Title, Body: r.Body}
}

// CreateUserRequest defines the payload for administrative user creation.
type CreateUserRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"     validate:"omitempty,oneof=USER ADMIN SUPER_ADMIN"`
}

// Input converts the request into service input.
func (r CreateUserRequest) Input() service.NewUserInput {
	return service.NewUserInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     domain.Role(r.Role),
	}
}

// UpdateUserRequest is a partial user update; absent fields are left untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name"     validate:"omitempty,max=100"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *string `json:"role"     validate:"omitempty,oneof=USER ADMIN SUPER_ADMIN"`
}

// Changes converts the request into service changes.
func (r UpdateUserRequest) Changes() service.UserChanges {
	changes := service.UserChanges{Name: r.Name, Email: r.Email, Password: r.Password}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		changes.Role = &role
	}
	return changes
}

// expiresAt formats the expiry of a token issued now.
func expiresAt(lifetime time.Duration) string {
	return time.Now().UTC().Add(lifetime).Format(time.RFC3339)
}
