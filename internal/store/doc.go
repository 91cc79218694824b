// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the scheduling logic, so the same services run against the Postgres
// backend on the server and the sqlite mirror on the client.
package store
