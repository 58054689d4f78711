package lock

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/platform/metrics"
)

// Publisher delivers coordinator events to connections. Implementations must
// not block: they are called while the coordinator holds its mutex.
type Publisher interface {
	// Broadcast delivers the event to every registered connection.
	Broadcast(event Event)
	// Send delivers the event to a single connection. Unknown connections are ignored.
	Send(connID string, event Event)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics records coordinator activity on the given collectors.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// Coordinator owns the lock table and serializes every operation on it.
type Coordinator struct {
	mu      sync.Mutex
	table   *Table
	conns   map[string]struct{}
	pub     Publisher
	metrics *metrics.Collectors
	logger  *slog.Logger
}

// NewCoordinator creates a coordinator that publishes through pub.
func NewCoordinator(pub Publisher, log *slog.Logger, opts ...Option) *Coordinator {
	if pub == nil {
		panic("publisher cannot be nil") // ALLOW-PANIC
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Coordinator{
		table:  NewTable(),
		conns:  make(map[string]struct{}),
		pub:    pub,
		logger: log.With(slog.String("component", "lock_coordinator")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, c.logger)
}

// Join registers a connection and sends it the current lock table.
// register runs inside the critical section, before the snapshot is taken,
// so the connection neither misses nor duplicates a transition.
func (c *Coordinator) Join(ctx context.Context, connID string, register func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if register != nil {
		register()
	}
	c.conns[connID] = struct{}{}
	c.pub.Send(connID, Event{Name: EventInitialLocks, To: connID, Data: c.table.Snapshot()})

	c.log(ctx).Debug("connection joined",
		slog.String("conn_id", connID),
		slog.Int("locks", c.table.Len()))
}

// Leave unregisters a connection and releases every lock it acquired, one
// task-unlocked broadcast per lock. Leaving twice, or leaving a connection
// that never joined, does nothing. It returns the number of released locks.
func (c *Coordinator) Leave(ctx context.Context, connID string, unregister func()) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.conns[connID]; !ok {
		return 0
	}
	delete(c.conns, connID)
	if unregister != nil {
		unregister()
	}

	events := c.table.Disconnect(connID)
	c.publish(events)
	c.metrics.Release(metrics.CauseDisconnect, len(events))
	c.metrics.SetLocksHeld(c.table.Len())

	c.log(ctx).Debug("connection left",
		slog.String("conn_id", connID),
		slog.Int("released", len(events)))
	return len(events)
}

// Acquire requests the edit lock on taskID for the user behind connID.
func (c *Coordinator) Acquire(ctx context.Context, taskID, userID, userName, connID string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, events := c.table.Acquire(taskID, userID, userName, connID)
	c.publish(events)
	c.metrics.Acquisition(result.String())
	c.metrics.SetLocksHeld(c.table.Len())

	c.log(ctx).Debug("lock requested",
		slog.String("task_id", taskID),
		slog.String("user_id", userID),
		slog.String("conn_id", connID),
		slog.String("result", result.String()))
	return result
}

// Release drops the lock on taskID if userID holds it. Anything else is a
// silent no-op.
func (c *Coordinator) Release(ctx context.Context, taskID, userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	released, events := c.table.Release(taskID, userID)
	if !released {
		return false
	}
	c.publish(events)
	c.metrics.Release(metrics.CauseExplicit, 1)
	c.metrics.SetLocksHeld(c.table.Len())

	c.log(ctx).Debug("lock released",
		slog.String("task_id", taskID),
		slog.String("user_id", userID))
	return true
}

// TaskCreated broadcasts task-added with the encoded task.
func (c *Coordinator) TaskCreated(ctx context.Context, task json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish([]Event{taskEvent(EventTaskAdded, task)})
	c.log(ctx).Debug("task added broadcast")
}

// TaskUpdated broadcasts task-changed with the encoded task.
func (c *Coordinator) TaskUpdated(ctx context.Context, task json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish([]Event{taskEvent(EventTaskChanged, task)})
	c.log(ctx).Debug("task changed broadcast")
}

// TaskDeleted broadcasts task-removed and, if the task was locked, drops the
// lock and broadcasts task-unlocked.
func (c *Coordinator) TaskDeleted(ctx context.Context, taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.publish([]Event{{Name: EventTaskRemoved, Data: taskID}})

	removed, events := c.table.Remove(taskID)
	if !removed {
		return
	}
	c.publish(events)
	c.metrics.Release(metrics.CauseDeleted, 1)
	c.metrics.SetLocksHeld(c.table.Len())

	c.log(ctx).Debug("lock dropped with deleted task", slog.String("task_id", taskID))
}

// Snapshot returns a copy of the lock table.
func (c *Coordinator) Snapshot() map[string]HolderView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.Snapshot()
}

// Len returns the number of held locks.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.Len()
}

// publish must be called with c.mu held.
func (c *Coordinator) publish(events []Event) {
	for _, e := range events {
		if e.Broadcast() {
			c.pub.Broadcast(e)
			c.metrics.Broadcast(e.Name)
			continue
		}
		c.pub.Send(e.To, e)
	}
}
