package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
)

// RefreshTokenCookie is the name of the HttpOnly cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users        service.UserService
	jwtService   auth.JWTService
	authConfig   *config.AuthConfig
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// secureCookie marks the refresh cookie Secure; set it whenever the API is
// served over TLS.
func NewAuthHandler(
	users service.UserService,
	jwtService auth.JWTService,
	authConfig *config.AuthConfig,
	secureCookie bool,
	logger *slog.Logger,
) *AuthHandler {
	if users == nil || jwtService == nil || authConfig == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("users, jwtService and authConfig cannot be nil for AuthHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:        users,
		jwtService:   jwtService,
		authConfig:   authConfig,
		secureCookie: secureCookie,
		logger:       logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	resp, err := h.issueTokens(r.Context(), w, user)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusCreated, "User registered successfully", resp)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
				GetSafeErrorMessage(err), err, shared.WithElevatedLogLevel())
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	resp, err := h.issueTokens(r.Context(), w, user)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	shared.RespondWithSuccess(w, r, http.StatusOK, "User logged in successfully", resp)
}

// RefreshToken handles POST /auth/refresh-token. The refresh token is read
// from the cookie, or from the body when no cookie is present. A fresh
// token pair is issued, rotating the cookie.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	token := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" && r.ContentLength != 0 {
		var req RefreshTokenRequest
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Refresh token is required")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), token)
	if err != nil {
		log.Debug("refresh token rejected", slog.String("reason", err.Error()))
		h.clearRefreshCookie(w)
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	// The role may have changed since the refresh token was issued.
	user, err := h.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.clearRefreshCookie(w)
		}
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	resp, err := h.issueTokens(r.Context(), w, user)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}
	resp.User = nil

	shared.RespondWithSuccess(w, r, http.StatusOK, "Access token refreshed successfully", resp)
}

// Logout handles POST /auth/logout by clearing the refresh cookie.
// Tokens are stateless, so an access token stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearRefreshCookie(w)
	shared.RespondWithSuccess(w, r, http.StatusOK, "Logged out successfully", nil)
}

// issueTokens generates an access and refresh token for user and sets the
// refresh cookie.
func (h *AuthHandler) issueTokens(ctx context.Context, w http.ResponseWriter, user *domain.User) (*AuthResponse, error) {
	accessToken, err := h.jwtService.GenerateToken(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	refreshLifetime := time.Duration(h.authConfig.RefreshTokenLifetimeMinutes) * time.Minute
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(refreshLifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt(h.jwtService.AccessTokenLifetime()),
		User:         user,
	}, nil
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
