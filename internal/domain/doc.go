// Package domain defines the core entities of the scheduling engine:
// decks and their configuration, notes, card records, and review events.
// Entities validate themselves; all scheduling behavior lives in the
// srs subpackage.
package domain
