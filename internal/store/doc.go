// Package store defines the persistence interfaces for users and tasks,
// the errors their implementations return, and a transaction helper.
// Implementations live in internal/platform/postgres.
package store
