// Package lock implements the advisory edit-lock registry for tasks.
//
// Table holds the decision logic: each mutation returns the events it
// implies and performs no I/O. Coordinator serializes access to a Table and
// hands the resulting events to a Publisher inside the same critical
// section, so every connection observes per-task transitions in the order
// they were applied.
//
// Locks live in memory only. A lock ends when its holder releases it, when
// the connection that acquired it goes away, or when its task is deleted.
package lock
