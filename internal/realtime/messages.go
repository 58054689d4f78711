package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskboard/internal/lock"
)

// Inbound event names.
const (
	EventLockTask    = "lock-task"
	EventUnlockTask  = "unlock-task"
	EventTaskCreated = "task-created"
	EventTaskUpdated = "task-updated"
	EventTaskDeleted = "task-deleted"
)

var (
	// ErrMalformedMessage is returned for frames that are not a JSON envelope.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrUnknownEvent is returned for envelopes with an unrecognized event name.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrInvalidPayload is returned when an envelope's data fails validation.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// LockTaskRequest is the data of lock-task.
type LockTaskRequest struct {
	TaskID   string `json:"taskId"   validate:"required"`
	UserID   string `json:"userId"   validate:"required"`
	UserName string `json:"userName" validate:"required"`
}

// UnlockTaskRequest is the data of unlock-task.
type UnlockTaskRequest struct {
	TaskID string `json:"taskId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// TaskDeletedRequest is the data of task-deleted. The wire form is either
// {"taskId": "..."} or a bare JSON string.
type TaskDeletedRequest struct {
	TaskID string `json:"taskId" validate:"required"`
}

// UnmarshalJSON accepts both wire forms.
func (r *TaskDeletedRequest) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.TaskID)
	}
	type plain TaskDeletedRequest
	return json.Unmarshal(data, (*plain)(r))
}

// taskMessage is the minimum a task-created or task-updated payload must carry.
type taskMessage struct {
	ID string `json:"id" validate:"required"`
}

// outbound is the encoded form of a lock.Event.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// encodeEvent marshals an event into an envelope.
func encodeEvent(e lock.Event) ([]byte, error) {
	return json.Marshal(outbound{Event: e.Name, Data: e.Data})
}

// decodeEnvelope parses a frame.
func decodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event name", ErrMalformedMessage)
	}
	return env, nil
}

// unmarshalPayload unmarshals data into dst without validating it.
func unmarshalPayload(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func validatePayload(v *validator.Validate, dst any) error {
	if err := v.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// decodePayload unmarshals data into dst and validates it.
func decodePayload(v *validator.Validate, data json.RawMessage, dst any) error {
	if err := unmarshalPayload(data, dst); err != nil {
		return err
	}
	return validatePayload(v, dst)
}

// decodeTask extracts the task from a task-created or task-updated payload.
// Both {"task": {...}} and the bare task object are accepted.
func decodeTask(v *validator.Validate, data json.RawMessage) (json.RawMessage, error) {
	var wrapped struct {
		Task json.RawMessage `json:"task"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Task) > 0 &&
		!bytes.Equal(wrapped.Task, []byte("null")) {
		data = wrapped.Task
	}

	var task taskMessage
	if err := decodePayload(v, data, &task); err != nil {
		return nil, err
	}
	return data, nil
}
