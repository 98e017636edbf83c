package postgres

import (
	"database/sql"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullableTime converts an optional time to a query argument.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// dateFrom reads a DATE column into a calendar date pointer.
func dateFrom(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	y, m, d := nt.Time.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

// timeFrom reads a nullable TIMESTAMPTZ column.
func timeFrom(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}
