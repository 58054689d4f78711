package lock

import "encoding/json"

// Outbound event names.
const (
	EventInitialLocks = "initial-locks"
	EventTaskLocked   = "task-locked"
	EventTaskUnlocked = "task-unlocked"
	EventLockFailed   = "lock-failed"
	EventTaskAdded    = "task-added"
	EventTaskChanged  = "task-changed"
	EventTaskRemoved  = "task-removed"
	EventError        = "error"
)

// Event is a message produced by the coordinator. An empty To means the
// event goes to every connection; otherwise only to the connection To.
type Event struct {
	Name string
	Data any
	To   string
}

// Broadcast reports whether the event targets every connection.
func (e Event) Broadcast() bool {
	return e.To == ""
}

// HolderView is the public part of a lock, as sent in snapshots.
type HolderView struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// LockedPayload is the data of a task-locked event.
type LockedPayload struct {
	TaskID   string `json:"taskId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// TaskIDPayload is the data of task-unlocked events. task-removed carries the
// bare task ID string instead.
type TaskIDPayload struct {
	TaskID string `json:"taskId"`
}

// LockFailedPayload is the data of a lock-failed event. LockedBy carries the
// holder's display name.
type LockFailedPayload struct {
	TaskID         string `json:"taskId"`
	LockedBy       string `json:"lockedBy"`
	LockedByUserID string `json:"lockedByUserId"`
}

// ErrorPayload is the data of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

func unlocked(taskID string) Event {
	return Event{Name: EventTaskUnlocked, Data: TaskIDPayload{TaskID: taskID}}
}

// taskEvent wraps an already-encoded task so it is not re-marshaled per recipient.
func taskEvent(name string, task json.RawMessage) Event {
	return Event{Name: name, Data: task}
}
