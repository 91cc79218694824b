package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRating is returned when a review rating is not one of
	// again, hard, good, easy.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidQueue is returned when a card queue value is not valid.
	ErrInvalidQueue = errors.New("invalid queue")

	// ErrInvalidCardType is returned when a card type is outside the
	// closed set of types a note fans out to.
	ErrInvalidCardType = errors.New("invalid card type")

	// ErrCorruptCardState is returned when a card record violates a
	// structural invariant (e.g. repetitions > 0 while still in the new
	// queue). It signals corrupted state, not a user error.
	ErrCorruptCardState = errors.New("corrupt card state")

	// ErrInvalidDeckConfig is returned when a deck configuration fails
	// its write-time validation. Invalid configurations must never reach
	// the scheduling function.
	ErrInvalidDeckConfig = errors.New("invalid deck configuration")
)
