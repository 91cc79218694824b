// Package srs implements the spaced-repetition scheduling engine: the
// pure scheduling function (SM-2 and FSRS variants), the queue
// classifier, the next-card selector with its daily new-card throttle,
// interval previews, and event-log replay.
//
// Everything in this package is deterministic and free of I/O so the
// identical code runs on the server and inside the offline client
// mirror, guaranteeing both compute the same card state from the same
// review history.
package srs
