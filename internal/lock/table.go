package lock

import "sort"

// Result is the outcome of an acquisition request.
type Result int

const (
	// Granted means the lock was created for the requester.
	Granted Result = iota
	// AlreadyHeld means the requesting user already held the lock.
	AlreadyHeld
	// Conflict means another user holds the lock.
	Conflict
)

func (r Result) String() string {
	switch r {
	case Granted:
		return "granted"
	case AlreadyHeld:
		return "already_held"
	case Conflict:
		return "conflict"
	}
	return "unknown"
}

// Lock is a claim by one connection on one task.
type Lock struct {
	TaskID   string
	UserID   string
	UserName string
	// ConnID identifies the connection that acquired the lock. It, not the
	// user, decides when the lock dies.
	ConnID string
}

// Table maps task IDs to their lock. It is not safe for concurrent use;
// Coordinator provides the serialization.
type Table struct {
	locks map[string]Lock
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{locks: make(map[string]Lock)}
}

// Acquire requests the lock on taskID for userID over connID.
func (t *Table) Acquire(taskID, userID, userName, connID string) (Result, []Event) {
	if held, ok := t.locks[taskID]; ok {
		if held.UserID == userID {
			return AlreadyHeld, nil
		}
		return Conflict, []Event{{
			Name: EventLockFailed,
			To:   connID,
			Data: LockFailedPayload{TaskID: taskID, LockedBy: held.UserName, LockedByUserID: held.UserID},
		}}
	}

	t.locks[taskID] = Lock{TaskID: taskID, UserID: userID, UserName: userName, ConnID: connID}
	return Granted, []Event{{
		Name: EventTaskLocked,
		Data: LockedPayload{TaskID: taskID, UserID: userID, UserName: userName},
	}}
}

// Release removes the lock on taskID if userID holds it.
func (t *Table) Release(taskID, userID string) (bool, []Event) {
	held, ok := t.locks[taskID]
	if !ok || held.UserID != userID {
		return false, nil
	}
	delete(t.locks, taskID)
	return true, []Event{unlocked(taskID)}
}

// Remove drops the lock on taskID whoever holds it.
func (t *Table) Remove(taskID string) (bool, []Event) {
	if _, ok := t.locks[taskID]; !ok {
		return false, nil
	}
	delete(t.locks, taskID)
	return true, []Event{unlocked(taskID)}
}

// Disconnect drops every lock acquired over connID, in task ID order, and
// returns one unlock event per dropped lock.
func (t *Table) Disconnect(connID string) []Event {
	var taskIDs []string
	for taskID, held := range t.locks {
		if held.ConnID == connID {
			taskIDs = append(taskIDs, taskID)
		}
	}
	if len(taskIDs) == 0 {
		return nil
	}
	sort.Strings(taskIDs)

	events := make([]Event, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		delete(t.locks, taskID)
		events = append(events, unlocked(taskID))
	}
	return events
}

// Snapshot returns a copy of the table keyed by task ID.
func (t *Table) Snapshot() map[string]HolderView {
	snap := make(map[string]HolderView, len(t.locks))
	for taskID, held := range t.locks {
		snap[taskID] = HolderView{UserID: held.UserID, UserName: held.UserName}
	}
	return snap
}

// Len returns the number of locks.
func (t *Table) Len() int {
	return len(t.locks)
}
