// Package postgres provides PostgreSQL implementations of the store
// interfaces. It is the server-side persistence backend; the client uses
// the sqlite mirror under internal/mirror instead.
package postgres
