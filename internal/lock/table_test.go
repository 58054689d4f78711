package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAcquire(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*Table)
		userID     string
		wantResult Result
		wantEvent  string
		wantTo     string
		wantHolder string
	}{
		{
			name:       "unlocked task is granted",
			setup:      func(*Table) {},
			userID:     "u1",
			wantResult: Granted,
			wantEvent:  EventTaskLocked,
			wantHolder: "u1",
		},
		{
			name: "same user re-acquire is silent",
			setup: func(tb *Table) {
				tb.Acquire("t1", "u1", "Ann", "c-other")
			},
			userID:     "u1",
			wantResult: AlreadyHeld,
			wantHolder: "u1",
		},
		{
			name: "other user conflicts",
			setup: func(tb *Table) {
				tb.Acquire("t1", "u2", "Bob", "c2")
			},
			userID:     "u1",
			wantResult: Conflict,
			wantEvent:  EventLockFailed,
			wantTo:     "c1",
			wantHolder: "u2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := NewTable()
			tt.setup(tb)

			result, events := tb.Acquire("t1", tt.userID, "Ann", "c1")

			assert.Equal(t, tt.wantResult, result)
			if tt.wantEvent == "" {
				assert.Empty(t, events)
			} else {
				require.Len(t, events, 1)
				assert.Equal(t, tt.wantEvent, events[0].Name)
				assert.Equal(t, tt.wantTo, events[0].To)
			}
			held, ok := tb.Snapshot()["t1"]
			require.True(t, ok)
			assert.Equal(t, tt.wantHolder, held.UserID)
			assert.Equal(t, 1, tb.Len())
		})
	}
}

func TestTableAcquireReacquireKeepsOriginalConnection(t *testing.T) {
	tb := NewTable()
	tb.Acquire("t1", "u1", "Ann", "c1")

	result, _ := tb.Acquire("t1", "u1", "Ann (tab 2)", "c2")

	assert.Equal(t, AlreadyHeld, result)
	assert.Equal(t, "Ann", tb.Snapshot()["t1"].UserName)

	// The lock stays bound to the first connection.
	assert.Empty(t, tb.Disconnect("c2"))
	assert.Equal(t, []Event{unlocked("t1")}, tb.Disconnect("c1"))
}

func TestTableConflictNamesHolder(t *testing.T) {
	tb := NewTable()
	tb.Acquire("t1", "u2", "Bob", "c2")

	_, events := tb.Acquire("t1", "u1", "Ann", "c1")

	require.Len(t, events, 1)
	assert.Equal(t, LockFailedPayload{TaskID: "t1", LockedBy: "Bob", LockedByUserID: "u2"}, events[0].Data)
}

func TestTableRelease(t *testing.T) {
	tb := NewTable()
	tb.Acquire("t1", "u1", "Ann", "c1")

	released, events := tb.Release("t1", "u2")
	assert.False(t, released, "non-holder release")
	assert.Empty(t, events)

	released, events = tb.Release("missing", "u1")
	assert.False(t, released, "release of unlocked task")
	assert.Empty(t, events)

	released, events = tb.Release("t1", "u1")
	assert.True(t, released)
	require.Len(t, events, 1)
	assert.Equal(t, Event{Name: EventTaskUnlocked, Data: TaskIDPayload{TaskID: "t1"}}, events[0])
	assert.Zero(t, tb.Len())
}

func TestTableDisconnect(t *testing.T) {
	tb := NewTable()
	tb.Acquire("t3", "u1", "Ann", "c1")
	tb.Acquire("t1", "u1", "Ann", "c1")
	tb.Acquire("t2", "u2", "Bob", "c2")
	// Same user on another connection: owned by c3, not c1.
	tb.Acquire("t4", "u1", "Ann", "c3")

	events := tb.Disconnect("c1")

	require.Len(t, events, 2)
	assert.Equal(t, TaskIDPayload{TaskID: "t1"}, events[0].Data)
	assert.Equal(t, TaskIDPayload{TaskID: "t3"}, events[1].Data)
	for _, e := range events {
		assert.Equal(t, EventTaskUnlocked, e.Name)
		assert.True(t, e.Broadcast())
	}
	assert.Equal(t, map[string]HolderView{
		"t2": {UserID: "u2", UserName: "Bob"},
		"t4": {UserID: "u1", UserName: "Ann"},
	}, tb.Snapshot())

	assert.Empty(t, tb.Disconnect("c1"), "second disconnect")
	assert.Empty(t, tb.Disconnect("unknown"))
}

func TestTableRemove(t *testing.T) {
	tb := NewTable()
	tb.Acquire("t1", "u1", "Ann", "c1")

	removed, events := tb.Remove("t1")
	assert.True(t, removed)
	assert.Len(t, events, 1)

	removed, events = tb.Remove("t1")
	assert.False(t, removed)
	assert.Empty(t, events)
}

func TestTableSnapshotIsCopy(t *testing.T) {
	tb := NewTable()
	tb.Acquire("t1", "u1", "Ann", "c1")

	snap := tb.Snapshot()
	delete(snap, "t1")

	assert.Equal(t, 1, tb.Len())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "granted", Granted.String())
	assert.Equal(t, "already_held", AlreadyHeld.String())
	assert.Equal(t, "conflict", Conflict.String())
	assert.Equal(t, "unknown", Result(42).String())
}
