// Package postgres implements the store interfaces on PostgreSQL through
// the pgx database/sql driver, and carries the embedded goose migrations
// that create the schema.
package postgres
