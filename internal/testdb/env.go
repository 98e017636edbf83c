package testdb

import "os"

// urlEnvVars are checked in order for a PostgreSQL connection string.
var urlEnvVars = []string{"DATABASE_URL", "MASTERY_TEST_DB_URL"}

// PostgresURL returns the first configured PostgreSQL URL, or "".
func PostgresURL() string {
	for _, name := range urlEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipPostgres reports whether no PostgreSQL URL is configured.
func ShouldSkipPostgres() bool {
	return PostgresURL() == ""
}
