// Package sync reconciles an offline mirror with the scheduling server.
//
// The reconciler pushes locally recorded review events to the server in
// reviewed_at order, then pulls deck, note, card, and event changes the
// server has accumulated since the mirror's pull cursor. Review events
// are append-only and carry client-generated IDs, so both directions are
// idempotent and a crashed sync can simply be retried.
package sync
