package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDefaultDeckConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultDeckConfig(uuid.New())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to validate, got %v", err)
	}
	if cfg.Model != ModelSM2 {
		t.Errorf("Expected sm2 default model, got %s", cfg.Model)
	}
	if cfg.NewCardsPerDay != 20 {
		t.Errorf("Expected 20 new cards per day, got %d", cfg.NewCardsPerDay)
	}
}

func TestDeckConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*DeckConfig)
		wantErr error
	}{
		{
			name:    "negative new card cap",
			mutate:  func(c *DeckConfig) { c.NewCardsPerDay = -1 },
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name:    "zero new card cap pauses introductions",
			mutate:  func(c *DeckConfig) { c.NewCardsPerDay = 0 },
			wantErr: nil,
		},
		{
			name:    "empty learning steps",
			mutate:  func(c *DeckConfig) { c.LearningSteps = nil },
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name:    "empty relearning steps",
			mutate:  func(c *DeckConfig) { c.RelearningSteps = nil },
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name: "inverted ease bounds",
			mutate: func(c *DeckConfig) {
				c.MinimumEase = 2.6
				c.MaximumEase = 2.5
				c.StartingEase = 2.5
			},
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name: "starting ease below bounds",
			mutate: func(c *DeckConfig) {
				c.StartingEase = 1.2
			},
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name:    "unknown model",
			mutate:  func(c *DeckConfig) { c.Model = SchedulingModel("leitner") },
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name:    "retention above ceiling",
			mutate:  func(c *DeckConfig) { c.RequestRetention = 0.99 },
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name:    "retention below floor",
			mutate:  func(c *DeckConfig) { c.RequestRetention = 0.5 },
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name:    "short weight vector",
			mutate:  func(c *DeckConfig) { c.Weights = make([]float64, 19) },
			wantErr: ErrInvalidDeckConfig,
		},
		{
			name: "full weight vector",
			mutate: func(c *DeckConfig) {
				c.Weights = make([]float64, FSRSWeightCount)
			},
			wantErr: nil,
		},
		{
			name:    "absent weights",
			mutate:  func(c *DeckConfig) { c.Weights = nil },
			wantErr: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultDeckConfig(uuid.New())
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDeckConfigSteps(t *testing.T) {
	t.Parallel()

	cfg := DefaultDeckConfig(uuid.New())
	cfg.LearningSteps = []time.Duration{time.Minute, 10 * time.Minute}
	cfg.RelearningSteps = []time.Duration{20 * time.Minute}

	if got := cfg.Steps(QueueLearning); len(got) != 2 {
		t.Errorf("Expected 2 learning steps, got %d", len(got))
	}
	if got := cfg.Steps(QueueRelearning); len(got) != 1 || got[0] != 20*time.Minute {
		t.Errorf("Expected the relearning steps, got %v", got)
	}
}

func TestDeckValidate(t *testing.T) {
	t.Parallel()

	deckID := uuid.New()
	deck := &Deck{
		ID:      deckID,
		OwnerID: uuid.New(),
		Name:    "JLPT N3 vocabulary",
		Config:  DefaultDeckConfig(deckID),
	}
	if err := deck.Validate(); err != nil {
		t.Fatalf("Expected valid deck, got %v", err)
	}

	missingName := *deck
	missingName.Name = ""
	if err := missingName.Validate(); !errors.Is(err, ErrDeckNameEmpty) {
		t.Errorf("Expected ErrDeckNameEmpty, got %v", err)
	}

	missingConfig := *deck
	missingConfig.Config = nil
	if err := missingConfig.Validate(); !errors.Is(err, ErrInvalidDeckConfig) {
		t.Errorf("Expected ErrInvalidDeckConfig, got %v", err)
	}
}
