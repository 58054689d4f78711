package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/lock"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRealtimeConfig = config.RealtimeConfig{
	SendBufferSize:      16,
	MaxMessageBytes:     4096,
	WriteTimeoutSeconds: 2,
	PongTimeoutSeconds:  10,
}

type stubTokens struct {
	claims *auth.Claims
	err    error
}

func (s stubTokens) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

type stubUsers struct {
	user *domain.User
	err  error
}

func (s stubUsers) GetUser(context.Context, uuid.UUID) (*domain.User, error) {
	return s.user, s.err
}

type testEnv struct {
	server *httptest.Server
	coord  *lock.Coordinator
	hub    *Hub
}

func newTestEnv(t *testing.T, cfg config.RealtimeConfig, tokens TokenValidator, origins ...string) *testEnv {
	t.Helper()
	return newTestEnvWithUsers(t, cfg, tokens, nil, origins...)
}

func newTestEnvWithUsers(
	t *testing.T,
	cfg config.RealtimeConfig,
	tokens TokenValidator,
	users UserLookup,
	origins ...string,
) *testEnv {
	t.Helper()
	log := logger.DiscardLogger()
	hub := NewHub(log, nil)
	coord := lock.NewCoordinator(hub, log)
	srv := httptest.NewServer(NewServer(coord, hub, tokens, users, cfg, origins, log))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &testEnv{server: srv, coord: coord, hub: hub}
}

func (e *testEnv) url(query string) string {
	u := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

// connect dials and consumes the initial snapshot.
func (e *testEnv) connect(t *testing.T) (*websocket.Conn, map[string]lock.HolderView) {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(e.url(""), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	env := readEvent(t, conn)
	require.Equal(t, lock.EventInitialLocks, env.Event)
	var snap map[string]lock.HolderView
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return conn, snap
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: raw}))
}

func readEvent(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestServerLockScenario(t *testing.T) {
	e := newTestEnv(t, testRealtimeConfig, nil)
	c1, snap := e.connect(t)
	assert.Empty(t, snap)
	c2, _ := e.connect(t)

	send(t, c1, EventLockTask, LockTaskRequest{TaskID: "T1", UserID: "u1", UserName: "Ann"})

	for _, conn := range []*websocket.Conn{c1, c2} {
		env := readEvent(t, conn)
		assert.Equal(t, lock.EventTaskLocked, env.Event)
		assert.JSONEq(t, `{"taskId":"T1","userId":"u1","userName":"Ann"}`, string(env.Data))
	}

	send(t, c2, EventLockTask, LockTaskRequest{TaskID: "T1", UserID: "u2", UserName: "Bob"})
	env := readEvent(t, c2)
	assert.Equal(t, lock.EventLockFailed, env.Event)
	assert.JSONEq(t, `{"taskId":"T1","lockedBy":"Ann","lockedByUserId":"u1"}`, string(env.Data))

	// A late joiner sees the lock in its snapshot.
	_, snap = e.connect(t)
	assert.Equal(t, map[string]lock.HolderView{"T1": {UserID: "u1", UserName: "Ann"}}, snap)
}

func TestServerDisconnectReleasesLocks(t *testing.T) {
	e := newTestEnv(t, testRealtimeConfig, nil)
	c1, _ := e.connect(t)
	c2, _ := e.connect(t)

	send(t, c1, EventLockTask, LockTaskRequest{TaskID: "T1", UserID: "u1", UserName: "Ann"})
	readEvent(t, c2)

	require.NoError(t, c1.Close())

	env := readEvent(t, c2)
	assert.Equal(t, lock.EventTaskUnlocked, env.Event)
	assert.JSONEq(t, `{"taskId":"T1"}`, string(env.Data))
	assert.Zero(t, e.coord.Len())
	assert.Eventually(t, func() bool { return e.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestServerTaskEvents(t *testing.T) {
	e := newTestEnv(t, testRealtimeConfig, nil)
	c1, _ := e.connect(t)
	c2, _ := e.connect(t)

	send(t, c1, EventLockTask, LockTaskRequest{TaskID: "T1", UserID: "u1", UserName: "Ann"})
	readEvent(t, c2)

	send(t, c1, EventTaskUpdated, map[string]any{"task": map[string]string{"id": "T1", "title": "new"}})
	env := readEvent(t, c2)
	assert.Equal(t, lock.EventTaskChanged, env.Event)
	assert.JSONEq(t, `{"id":"T1","title":"new"}`, string(env.Data))

	send(t, c1, EventTaskDeleted, "T1")
	removed := readEvent(t, c2)
	assert.Equal(t, lock.EventTaskRemoved, removed.Event)
	var removedID string
	require.NoError(t, json.Unmarshal(removed.Data, &removedID), "task-removed carries the bare task id")
	assert.Equal(t, "T1", removedID)
	assert.Equal(t, lock.EventTaskUnlocked, readEvent(t, c2).Event)
	assert.Zero(t, e.coord.Len())
}

func TestServerRejectsBadMessages(t *testing.T) {
	e := newTestEnv(t, testRealtimeConfig, nil)
	c1, _ := e.connect(t)
	c2, _ := e.connect(t)

	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{name: "not json", frame: `hello`, want: "malformed message"},
		{name: "unknown event", frame: `{"event":"steal-task","data":{}}`, want: "unknown event: steal-task"},
		{name: "missing fields", frame: `{"event":"lock-task","data":{"taskId":"T1"}}`, want: "invalid payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, c1.WriteMessage(websocket.TextMessage, []byte(tt.frame)))
			env := readEvent(t, c1)
			assert.Equal(t, lock.EventError, env.Event)
			assert.Contains(t, string(env.Data), tt.want)
		})
	}

	// The other connection saw none of it: its next event is a fresh broadcast.
	send(t, c1, EventLockTask, LockTaskRequest{TaskID: "T9", UserID: "u1", UserName: "Ann"})
	assert.Equal(t, lock.EventTaskLocked, readEvent(t, c2).Event)
}

func TestServerAuthenticatedIdentityOverridesPayload(t *testing.T) {
	userID := uuid.New()
	tokens := stubTokens{claims: &auth.Claims{UserID: userID, Role: domain.RoleUser}}
	e := newTestEnv(t, testRealtimeConfig, tokens)

	conn, resp, err := websocket.DefaultDialer.Dial(e.url("token=good"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer conn.Close()
	readEvent(t, conn)

	send(t, conn, EventLockTask, map[string]string{"taskId": "T1", "userId": "someone-else", "userName": "Ann"})

	env := readEvent(t, conn)
	assert.Equal(t, lock.EventTaskLocked, env.Event)
	assert.JSONEq(t, `{"taskId":"T1","userId":"`+userID.String()+`","userName":"Ann"}`, string(env.Data))
}

func TestServerAuthenticatedNameComesFromUserRecord(t *testing.T) {
	userID := uuid.New()
	tokens := stubTokens{claims: &auth.Claims{UserID: userID, Role: domain.RoleUser}}
	users := stubUsers{user: &domain.User{ID: userID, Name: "Ada Lovelace"}}
	e := newTestEnvWithUsers(t, testRealtimeConfig, tokens, users)

	holder, resp, err := websocket.DefaultDialer.Dial(e.url("token=good"), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer holder.Close()
	readEvent(t, holder)
	other, _ := e.connect(t)

	send(t, holder, EventLockTask, map[string]string{"taskId": "T1", "userId": "x", "userName": "Mallory"})
	env := readEvent(t, holder)
	assert.JSONEq(t, `{"taskId":"T1","userId":"`+userID.String()+`","userName":"Ada Lovelace"}`, string(env.Data))
	readEvent(t, other)

	send(t, other, EventLockTask, LockTaskRequest{TaskID: "T1", UserID: "u2", UserName: "Bob"})
	failed := readEvent(t, other)
	assert.Equal(t, lock.EventLockFailed, failed.Event)
	var payload lock.LockFailedPayload
	require.NoError(t, json.Unmarshal(failed.Data, &payload))
	assert.Equal(t, "Ada Lovelace", payload.LockedBy)
}

func TestServerRejectsTokenForUnknownUser(t *testing.T) {
	tokens := stubTokens{claims: &auth.Claims{UserID: uuid.New(), Role: domain.RoleUser}}
	e := newTestEnvWithUsers(t, testRealtimeConfig, tokens, stubUsers{err: errors.New("user not found")})

	_, resp, err := websocket.DefaultDialer.Dial(e.url("token=good"), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerIgnoresTaskEchoWhenRESTEventsOn(t *testing.T) {
	cfg := testRealtimeConfig
	cfg.EmitCRUDEvents = true
	e := newTestEnv(t, cfg, nil)
	bridge := NewTaskEventBridge(e.coord, logger.DiscardLogger())
	c1, _ := e.connect(t)
	c2, _ := e.connect(t)

	taskID := uuid.New()
	created, err := events.NewTaskEvent(events.TaskCreated, taskID, uuid.New(),
		map[string]string{"id": taskID.String(), "title": "Ship it"})
	require.NoError(t, err)
	require.NoError(t, bridge.HandleEvent(context.Background(), created))

	// The creating client echoes the change, as clients of the socket protocol do.
	send(t, c1, EventTaskCreated, map[string]any{"task": map[string]string{"id": taskID.String(), "title": "Ship it"}})
	send(t, c1, EventLockTask, LockTaskRequest{TaskID: taskID.String(), UserID: "u1", UserName: "Ann"})
	send(t, c1, EventTaskDeleted, taskID.String())
	send(t, c1, EventUnlockTask, UnlockTaskRequest{TaskID: taskID.String(), UserID: "u1"})

	var names []string
	for i := 0; i < 3; i++ {
		names = append(names, readEvent(t, c2).Event)
	}
	assert.Equal(t, []string{lock.EventTaskAdded, lock.EventTaskLocked, lock.EventTaskUnlocked}, names,
		"one task-added per create and no task-removed from the echoed delete")
}

func TestServerAuthFailures(t *testing.T) {
	required := testRealtimeConfig
	required.RequireAuth = true

	tests := []struct {
		name   string
		cfg    config.RealtimeConfig
		tokens TokenValidator
		query  string
	}{
		{name: "token required but missing", cfg: required, tokens: stubTokens{}},
		{name: "invalid token", cfg: testRealtimeConfig, tokens: stubTokens{err: auth.ErrInvalidToken}, query: "token=bad"},
		{name: "token without validator", cfg: testRealtimeConfig, query: "token=any"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, tt.cfg, tt.tokens)
			_, resp, err := websocket.DefaultDialer.Dial(e.url(tt.query), nil)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestServerOriginCheck(t *testing.T) {
	e := newTestEnv(t, testRealtimeConfig, nil, "https://tasks.example.com")

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(e.url(""), header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://tasks.example.com")
	conn, resp2, err := websocket.DefaultDialer.Dial(e.url(""), header)
	require.NoError(t, err)
	_ = resp2.Body.Close()
	_ = conn.Close()
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173/"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "no origin header")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:9999")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
