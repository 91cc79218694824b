package api

// SubmitReviewRequest is the body for POST /api/study/cards/{id}/review.
// Everything past the rating is session metadata stored on the event.
type SubmitReviewRequest struct {
	Rating       string  `json:"rating"        validate:"required,oneof=again hard good easy"`
	SessionID    *string `json:"session_id,omitempty"    validate:"omitempty,uuid"`
	TimeSpentMs  *int    `json:"time_spent_ms,omitempty" validate:"omitempty,gte=0"`
	UserAnswer   *string `json:"user_answer,omitempty"`
	RecordingRef *string `json:"recording_ref,omitempty"`
}

// PostponeCardRequest is the body for POST /api/study/cards/{id}/postpone.
type PostponeCardRequest struct {
	Days int `json:"days" validate:"required,gt=0"`
}

// PushEventsResponse reports the outcome of a sync push. Duplicates are
// events the server already knew; clients treat them as accepted.
type PushEventsResponse struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}
