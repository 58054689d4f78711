package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/mocks"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testAuthConfig = &config.AuthConfig{
	TokenLifetimeMinutes:        60,
	RefreshTokenLifetimeMinutes: 1440,
}

func testUser(role domain.Role) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          "ada@example.com",
		Role:           role,
		HashedPassword: "hashed:secret1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func newAuthHandler(t *testing.T, jwt *mocks.MockJWTService) (*AuthHandler, *mocks.MockUserService) {
	t.Helper()
	users := &mocks.MockUserService{}
	t.Cleanup(func() { users.AssertExpectations(t) })
	return NewAuthHandler(users, jwt, testAuthConfig, true, logger.DiscardLogger()), users
}

func refreshCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == RefreshTokenCookie {
			return c
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	t.Run("issues tokens", func(t *testing.T) {
		jwt := &mocks.MockJWTService{Token: "access-1", RefreshToken: "refresh-1"}
		h, users := newAuthHandler(t, jwt)
		user := testUser(domain.RoleUser)
		users.On("Register", mock.Anything, "Ada", "ada@example.com", "secret1").Return(user, nil)

		rr := httptest.NewRecorder()
		h.Register(rr, newJSONRequest(t, http.MethodPost, "/auth/register",
			RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}))

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp AuthResponse
		decodeEnvelope(t, rr, &resp)
		assert.Equal(t, "access-1", resp.AccessToken)
		assert.Equal(t, "refresh-1", resp.RefreshToken)
		assert.NotEmpty(t, resp.ExpiresAt)
		require.NotNil(t, resp.User)
		assert.Equal(t, user.ID, resp.User.ID)
		assert.NotContains(t, rr.Body.String(), "hashed:secret1")

		cookie := refreshCookie(rr)
		require.NotNil(t, cookie)
		assert.Equal(t, "refresh-1", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, 1440*60, cookie.MaxAge)
	})

	t.Run("duplicate email", func(t *testing.T) {
		h, users := newAuthHandler(t, &mocks.MockJWTService{})
		users.On("Register", mock.Anything, "Ada", "ada@example.com", "secret1").Return(nil, store.ErrEmailExists)

		rr := httptest.NewRecorder()
		h.Register(rr, newJSONRequest(t, http.MethodPost, "/auth/register",
			RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}))

		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "Email already exists", decodeError(t, rr).Error)
	})

	t.Run("short password", func(t *testing.T) {
		h, _ := newAuthHandler(t, &mocks.MockJWTService{})

		rr := httptest.NewRecorder()
		h.Register(rr, newJSONRequest(t, http.MethodPost, "/auth/register",
			RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "123"}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid Password: too short", decodeError(t, rr).Error)
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		var gotRole domain.Role
		jwt := &mocks.MockJWTService{
			GenerateTokenFn: func(ctx context.Context, userID uuid.UUID, role domain.Role) (string, error) {
				gotRole = role
				return "access-admin", nil
			},
			RefreshToken: "refresh-admin",
		}
		h, users := newAuthHandler(t, jwt)
		user := testUser(domain.RoleAdmin)
		users.On("Authenticate", mock.Anything, "ada@example.com", "secret1").Return(user, nil)

		rr := httptest.NewRecorder()
		h.Login(rr, newJSONRequest(t, http.MethodPost, "/auth/login",
			LoginRequest{Email: "ada@example.com", Password: "secret1"}))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp AuthResponse
		decodeEnvelope(t, rr, &resp)
		assert.Equal(t, "access-admin", resp.AccessToken)
		assert.Equal(t, domain.RoleAdmin, gotRole)
		require.NotNil(t, refreshCookie(rr))
	})

	t.Run("invalid credentials", func(t *testing.T) {
		h, users := newAuthHandler(t, &mocks.MockJWTService{})
		users.On("Authenticate", mock.Anything, "ada@example.com", "wrong!!").Return(nil, service.ErrInvalidCredentials)

		rr := httptest.NewRecorder()
		h.Login(rr, newJSONRequest(t, http.MethodPost, "/auth/login",
			LoginRequest{Email: "ada@example.com", Password: "wrong!!"}))

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid email or password", decodeError(t, rr).Error)
		assert.Nil(t, refreshCookie(rr))
	})
}

func TestRefreshToken(t *testing.T) {
	user := testUser(domain.RoleUser)

	validJWT := func() *mocks.MockJWTService {
		return &mocks.MockJWTService{
			ValidateRefreshTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				if token == "good-refresh" {
					return &auth.Claims{UserID: user.ID, TokenType: auth.TokenTypeRefresh}, nil
				}
				return nil, auth.ErrInvalidRefreshToken
			},
			Token:        "new-access",
			RefreshToken: "new-refresh",
		}
	}

	t.Run("from cookie", func(t *testing.T) {
		h, users := newAuthHandler(t, validJWT())
		users.On("GetUser", mock.Anything, user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "good-refresh"})
		rr := httptest.NewRecorder()
		h.RefreshToken(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp AuthResponse
		decodeEnvelope(t, rr, &resp)
		assert.Equal(t, "new-access", resp.AccessToken)
		assert.Nil(t, resp.User)
		cookie := refreshCookie(rr)
		require.NotNil(t, cookie)
		assert.Equal(t, "new-refresh", cookie.Value, "refresh token should rotate")
	})

	t.Run("from body", func(t *testing.T) {
		h, users := newAuthHandler(t, validJWT())
		users.On("GetUser", mock.Anything, user.ID).Return(user, nil)

		rr := httptest.NewRecorder()
		h.RefreshToken(rr, newJSONRequest(t, http.MethodPost, "/auth/refresh-token",
			RefreshTokenRequest{RefreshToken: "good-refresh"}))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		h, _ := newAuthHandler(t, validJWT())

		rr := httptest.NewRecorder()
		h.RefreshToken(rr, httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Refresh token is required", decodeError(t, rr).Error)
	})

	t.Run("invalid token clears cookie", func(t *testing.T) {
		h, _ := newAuthHandler(t, validJWT())

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "forged"})
		rr := httptest.NewRecorder()
		h.RefreshToken(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid refresh token", decodeError(t, rr).Error)
		cookie := refreshCookie(rr)
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
	})

	t.Run("deleted user", func(t *testing.T) {
		h, users := newAuthHandler(t, validJWT())
		users.On("GetUser", mock.Anything, user.ID).Return(nil, store.ErrUserNotFound)

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "good-refresh"})
		rr := httptest.NewRecorder()
		h.RefreshToken(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		require.NotNil(t, refreshCookie(rr))
	})
}

func TestLogout(t *testing.T) {
	h, _ := newAuthHandler(t, &mocks.MockJWTService{})

	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	cookie := refreshCookie(rr)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}
