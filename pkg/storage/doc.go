// Package storage persists target snapshots and message deletion
// obligations. A single database/sql implementation serves both the
// embedded SQLite backend and Postgres; the schema is managed through
// embedded goose migrations.
package storage
