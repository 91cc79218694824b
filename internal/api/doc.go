// Package api provides the HTTP handlers for the scheduling server:
// study operations under /api/study and the sync endpoints offline
// clients reconcile against under /api/sync.
package api
