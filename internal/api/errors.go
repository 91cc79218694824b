package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lexvault/lexvault/internal/domain/srs"
	"github.com/lexvault/lexvault/internal/service/auth"
	"github.com/lexvault/lexvault/internal/service/study"
	"github.com/lexvault/lexvault/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes
// without leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, study.ErrInvalidRating),
		errors.Is(err, srs.ErrInvalidPostponeDays),
		errors.Is(err, srs.ErrNotInReview),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, study.ErrNoCardsDue):
		return http.StatusNoContent

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, study.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, study.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, study.ErrInvalidRating):
		return "Invalid rating"

	case errors.Is(err, srs.ErrInvalidPostponeDays):
		return "Postpone days must be positive"

	case errors.Is(err, srs.ErrNotInReview):
		return "Only review cards can be postponed"

	case errors.Is(err, store.ErrDuplicate):
		return "Already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a client-safe
// message naming only the offending field and rule.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of the allowed values"
	case "gt":
		return "must be greater than zero"
	case "gte":
		return "must not be negative"
	default:
		return "invalid value"
	}
}
