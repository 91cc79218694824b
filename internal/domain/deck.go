package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SchedulingModel selects which scheduling function variant, and which
// card field subset, a deck uses. Modeled as a tagged variant so the
// unused lineage's fields never drift silently.
type SchedulingModel string

// Supported scheduling models.
const (
	ModelSM2  SchedulingModel = "sm2"
	ModelFSRS SchedulingModel = "fsrs"
)

// IsValid reports whether m is a supported scheduling model.
func (m SchedulingModel) IsValid() bool {
	return m == ModelSM2 || m == ModelFSRS
}

// FSRSWeightCount is the length a deck's FSRS weight vector must have
// when one is supplied.
const FSRSWeightCount = 21

// Deck configuration validation errors.
var (
	ErrEaseBoundsInverted = errors.New("minimum ease cannot exceed maximum ease")
	ErrStartingEaseOutOfBounds = errors.New(
		"starting ease must lie within the minimum/maximum ease bounds",
	)
	ErrNoLearningSteps = errors.New("learning steps cannot be empty")
	ErrBadWeightCount  = errors.New("FSRS weights must have exactly 21 elements or be absent")
)

var configValidate = validator.New()

// DeckConfig is the per-deck scheduling configuration, owned by the deck
// and mutable by its owner. It is validated at write time; the scheduling
// function assumes a validated config and fails fast otherwise.
type DeckConfig struct {
	DeckID uuid.UUID `json:"deck_id" validate:"required"`

	NewCardsPerDay int `json:"new_cards_per_day" validate:"gte=0"`

	// Step durations for the learning and relearning phases, in order.
	LearningSteps   []time.Duration `json:"learning_steps"   validate:"required,min=1"`
	RelearningSteps []time.Duration `json:"relearning_steps" validate:"required,min=1"`

	GraduatingIntervalDays int `json:"graduating_interval_days" validate:"gte=1"`
	EasyIntervalDays       int `json:"easy_interval_days"       validate:"gte=1"`

	StartingEase float64 `json:"starting_ease" validate:"gt=1"`
	MinimumEase  float64 `json:"minimum_ease"  validate:"gt=1"`
	MaximumEase  float64 `json:"maximum_ease"  validate:"gt=1"`

	IntervalModifier float64 `json:"interval_modifier" validate:"gt=0"`
	HardMultiplier   float64 `json:"hard_multiplier"   validate:"gt=0"`
	EasyBonus        float64 `json:"easy_bonus"        validate:"gte=1"`

	Model SchedulingModel `json:"model" validate:"required,oneof=sm2 fsrs"`

	// FSRS-only knobs. RequestRetention is ignored for SM-2 decks;
	// Weights nil means "use the default parameter set".
	RequestRetention float64   `json:"request_retention,omitempty" validate:"omitempty,gte=0.7,lte=0.97"`
	Weights          []float64 `json:"weights,omitempty"`
}

// DefaultDeckConfig returns the configuration a freshly created deck gets.
func DefaultDeckConfig(deckID uuid.UUID) *DeckConfig {
	return &DeckConfig{
		DeckID:                 deckID,
		NewCardsPerDay:         20,
		LearningSteps:          []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:        []time.Duration{10 * time.Minute},
		GraduatingIntervalDays: 1,
		EasyIntervalDays:       4,
		StartingEase:           2.5,
		MinimumEase:            1.3,
		MaximumEase:            2.5,
		IntervalModifier:       1.0,
		HardMultiplier:         1.2,
		EasyBonus:              1.3,
		Model:                  ModelSM2,
		RequestRetention:       0.9,
	}
}

// Validate rejects invalid configurations at write time so they never
// reach the scheduling function.
func (c *DeckConfig) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeckConfig, err)
	}

	if c.MinimumEase > c.MaximumEase {
		return fmt.Errorf("%w: %v", ErrInvalidDeckConfig, ErrEaseBoundsInverted)
	}

	if c.StartingEase < c.MinimumEase || c.StartingEase > c.MaximumEase {
		return fmt.Errorf("%w: %v", ErrInvalidDeckConfig, ErrStartingEaseOutOfBounds)
	}

	if len(c.LearningSteps) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidDeckConfig, ErrNoLearningSteps)
	}

	if c.Weights != nil && len(c.Weights) != FSRSWeightCount {
		return fmt.Errorf("%w: %v", ErrInvalidDeckConfig, ErrBadWeightCount)
	}

	return nil
}

// Steps returns the step sequence for the given queue: learning steps for
// Learning, relearning steps for Relearning.
func (c *DeckConfig) Steps(q Queue) []time.Duration {
	if q == QueueRelearning {
		return c.RelearningSteps
	}
	return c.LearningSteps
}

// Deck validation errors.
var (
	ErrDeckIDEmpty    = errors.New("deck ID cannot be empty")
	ErrDeckOwnerEmpty = errors.New("deck owner ID cannot be empty")
	ErrDeckNameEmpty  = errors.New("deck name cannot be empty")
)

// Deck groups notes and carries the scheduling configuration that governs
// every card in it. Deck content CRUD belongs to an external collaborator;
// the scheduler only reads decks through store interfaces.
type Deck struct {
	ID        uuid.UUID   `json:"id"`
	OwnerID   uuid.UUID   `json:"owner_id"`
	Name      string      `json:"name"`
	Config    *DeckConfig `json:"config"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks the deck's identity fields and its configuration.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.OwnerID == uuid.Nil {
		return ErrDeckOwnerEmpty
	}

	if d.Name == "" {
		return ErrDeckNameEmpty
	}

	if d.Config == nil {
		return ErrInvalidDeckConfig
	}

	return d.Config.Validate()
}
