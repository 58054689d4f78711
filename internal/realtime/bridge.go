package realtime

import (
	"context"
	"log/slog"

	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/lock"
	"github.com/phrazzld/taskboard/internal/platform/logger"
)

// TaskEventBridge forwards committed task changes from the REST services
// into the coordinator, so connected clients see them without the author
// echoing them over the socket.
type TaskEventBridge struct {
	coord  *lock.Coordinator
	logger *slog.Logger
}

var _ events.EventHandler = (*TaskEventBridge)(nil)

// NewTaskEventBridge creates a bridge publishing into coord.
func NewTaskEventBridge(coord *lock.Coordinator, log *slog.Logger) *TaskEventBridge {
	if coord == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("coordinator cannot be nil for TaskEventBridge")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TaskEventBridge{coord: coord, logger: log.With(slog.String("component", "task_event_bridge"))}
}

// HandleEvent implements events.EventHandler. Unknown event types are ignored.
func (b *TaskEventBridge) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	log := logger.FromContextOrDefault(ctx, b.logger)

	switch event.Type {
	case events.TaskCreated:
		b.coord.TaskCreated(ctx, event.Payload)
	case events.TaskUpdated:
		b.coord.TaskUpdated(ctx, event.Payload)
	case events.TaskDeleted:
		b.coord.TaskDeleted(ctx, event.TaskID.String())
	default:
		log.Debug("ignoring event with unsupported type",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
		return nil
	}

	log.Debug("task event forwarded",
		slog.String("event_type", event.Type),
		slog.String("task_id", event.TaskID.String()))
	return nil
}
