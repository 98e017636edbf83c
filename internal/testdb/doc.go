// Package testdb provides database fixtures for tests.
//
// SQLite fixtures live in a t.TempDir() file, so every test gets a fresh,
// migrated database with no external dependencies:
//
//	func TestMyFeature(t *testing.T) {
//	    stores := testdb.SQLite(t)
//	    svc, err := lifecycle.NewService(stores, clock.NewFixed(now), nil, nil)
//	    ...
//	}
//
// PostgreSQL fixtures need a server. They read the connection string from
// DATABASE_URL or MASTERY_TEST_DB_URL and skip the test when neither is set.
// Tables are truncated when the fixture is created.
//
// WithTx runs a function in a transaction that is always rolled back, for
// tests that want to poke at stores without leaving rows behind.
package testdb
