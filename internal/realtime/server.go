package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/lock"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/rs/xid"
)

// TokenValidator checks access tokens presented on upgrade.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error)
}

// UserLookup resolves the account behind an authenticated connection.
type UserLookup interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Server is the http.Handler for the websocket endpoint.
type Server struct {
	coord    *lock.Coordinator
	hub      *Hub
	tokens   TokenValidator
	users    UserLookup
	validate *validator.Validate
	upgrader websocket.Upgrader
	settings pumpSettings
	buffer   int
	// requireAuth rejects upgrades without a valid access token.
	requireAuth bool
	// restTaskEvents means task changes already reach the coordinator from
	// the REST side, so task-* frames from sockets are not re-broadcast.
	restTaskEvents bool
	logger         *slog.Logger
}

// NewServer wires the websocket endpoint to a coordinator and its hub.
// tokens may be nil, in which case every connection is anonymous and
// cfg.RequireAuth must be false. users may be nil, in which case
// authenticated connections keep the display name they send.
func NewServer(
	coord *lock.Coordinator,
	hub *Hub,
	tokens TokenValidator,
	users UserLookup,
	cfg config.RealtimeConfig,
	allowedOrigins []string,
	log *slog.Logger,
) *Server {
	if coord == nil || hub == nil {
		panic("coordinator and hub cannot be nil") // ALLOW-PANIC
	}
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		coord:    coord,
		hub:      hub,
		tokens:   tokens,
		users:    users,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		settings: pumpSettings{
			maxMessageBytes: cfg.MaxMessageBytes,
			writeTimeout:    time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
			pongTimeout:     time.Duration(cfg.PongTimeoutSeconds) * time.Second,
		},
		buffer:         cfg.SendBufferSize,
		requireAuth:    cfg.RequireAuth,
		restTaskEvents: cfg.EmitCRUDEvents,
		logger:         log.With(slog.String("component", "realtime")),
	}
}

// originChecker allows requests without an Origin header (non-browser
// clients) and browser requests from an allowed origin. "*" allows any.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := s.authenticate(r)
	if err != nil {
		s.logger.Debug("websocket authentication failed", slog.String("error", err.Error()))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response.
		s.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := newClient(xid.New().String(), conn, identity, s.buffer)
	connLogger := s.logger.With(slog.String("conn_id", c.id))
	if identity != nil {
		connLogger = connLogger.With(slog.String("user_id", identity.UserID))
	}
	ctx := logger.WithContext(r.Context(), connLogger)

	s.coord.Join(ctx, c.id, func() { s.hub.register(c) })
	connLogger.Info("websocket connected", slog.String("remote_addr", r.RemoteAddr))

	go c.writePump(s.settings, connLogger)
	c.readPump(ctx, s.settings, connLogger, func(ctx context.Context, frame []byte) {
		s.handleFrame(ctx, c, frame)
	})

	released := s.coord.Leave(ctx, c.id, func() { s.hub.unregister(c.id) })
	connLogger.Info("websocket disconnected", slog.Int("released_locks", released))
}

var errMissingToken = errors.New("missing access token")

// authenticate returns the identity from ?token= or a bearer header. A
// missing token is only an error when auth is required.
func (s *Server) authenticate(r *http.Request) (*Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}
	}

	if token == "" {
		if s.requireAuth {
			return nil, errMissingToken
		}
		return nil, nil
	}
	if s.tokens == nil {
		return nil, auth.ErrInvalidToken
	}

	claims, err := s.tokens.ValidateToken(r.Context(), token)
	if err != nil {
		return nil, err
	}
	identity := &Identity{UserID: claims.UserID.String(), Role: string(claims.Role)}

	if s.users != nil {
		user, err := s.users.GetUser(r.Context(), claims.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user: %w", err)
		}
		identity.UserName = user.Name
	}
	return identity, nil
}

// handleFrame turns one inbound frame into a coordinator call. Problems are
// reported to the sender only.
func (s *Server) handleFrame(ctx context.Context, c *client, frame []byte) {
	if err := s.dispatch(ctx, c, frame); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Debug("rejected websocket message", slog.String("error", err.Error()))
		s.hub.Send(c.id, lock.Event{
			Name: lock.EventError,
			To:   c.id,
			Data: lock.ErrorPayload{Message: err.Error()},
		})
	}
}

func (s *Server) dispatch(ctx context.Context, c *client, frame []byte) error {
	env, err := decodeEnvelope(frame)
	if err != nil {
		return err
	}

	switch env.Event {
	case EventLockTask:
		var req LockTaskRequest
		if err := unmarshalPayload(env.Data, &req); err != nil {
			return err
		}
		c.applyIdentity(&req.UserID, &req.UserName)
		if err := validatePayload(s.validate, &req); err != nil {
			return err
		}
		s.coord.Acquire(ctx, req.TaskID, req.UserID, req.UserName, c.id)

	case EventUnlockTask:
		var req UnlockTaskRequest
		if err := unmarshalPayload(env.Data, &req); err != nil {
			return err
		}
		c.applyIdentity(&req.UserID, nil)
		if err := validatePayload(s.validate, &req); err != nil {
			return err
		}
		s.coord.Release(ctx, req.TaskID, req.UserID)

	case EventTaskCreated, EventTaskUpdated:
		task, err := decodeTask(s.validate, env.Data)
		if err != nil {
			return err
		}
		if s.restTaskEvents {
			s.ignoreTaskFrame(ctx, env.Event)
			return nil
		}
		if env.Event == EventTaskCreated {
			s.coord.TaskCreated(ctx, task)
		} else {
			s.coord.TaskUpdated(ctx, task)
		}

	case EventTaskDeleted:
		var req TaskDeletedRequest
		if err := decodePayload(s.validate, env.Data, &req); err != nil {
			return err
		}
		if s.restTaskEvents {
			s.ignoreTaskFrame(ctx, env.Event)
			return nil
		}
		s.coord.TaskDeleted(ctx, req.TaskID)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, env.Event)
	}
	return nil
}

// ignoreTaskFrame drops a client echo of a task change that the REST side
// has already broadcast.
func (s *Server) ignoreTaskFrame(ctx context.Context, event string) {
	logger.FromContextOrDefault(ctx, s.logger).Debug("ignoring socket task event",
		slog.String("event", event))
}

// applyIdentity replaces client-supplied user fields with the authenticated
// ones. userName may be nil.
func (c *client) applyIdentity(userID, userName *string) {
	if c.identity == nil {
		return
	}
	*userID = c.identity.UserID
	if userName != nil && c.identity.UserName != "" {
		*userName = c.identity.UserName
	}
}
