// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package. It owns the schema
// (goose migrations embedded in the binary) and the mapping between domain
// entities and rows.
package postgres
