//go:build integration

// Package testdb provides helpers for tests that run against a real PostgreSQL
// database.
//
// Tests using this package are compiled only with the integration build tag and
// are skipped when no database URL is configured:
//
//	func TestSomething(t *testing.T) {
//		db := testdb.Open(t)
//		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//			users := postgres.NewPostgresUserStore(tx, logger.DiscardLogger())
//			// ...
//		})
//	}
//
// WithTx rolls back every change, so tests sharing a database stay isolated.
// Open applies all migrations and empties the tables before returning.
package testdb
