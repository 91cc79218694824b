package srs

import (
	"math"
	"time"

	"github.com/lexvault/lexvault/internal/domain"
)

// DefaultFSRSWeights are the FSRS-6 default parameter values, used when a
// deck supplies no weight vector of its own.
var DefaultFSRSWeights = [domain.FSRSWeightCount]float64{
	0.212, 1.2931, 2.3065, 8.2956,
	6.4133, 0.8334, 3.0194, 0.001,
	1.8722, 0.1666, 0.796, 1.4835,
	0.0614, 0.2629, 1.6483, 0.6014,
	1.8729, 0.5425, 0.0912, 0.0658,
	0.1542,
}

const (
	defaultRequestRetention = 0.9
	maximumIntervalDays     = 36500
	minimumStability        = 0.001
)

// fsrsAlgo holds the weight vector plus the constants derived from it.
type fsrsAlgo struct {
	w      [domain.FSRSWeightCount]float64
	decay  float64
	factor float64
}

func newFSRSAlgo(cfg *domain.DeckConfig) fsrsAlgo {
	w := DefaultFSRSWeights
	if cfg.Weights != nil {
		copy(w[:], cfg.Weights)
	}
	decay := -w[20]
	return fsrsAlgo{
		w:      w,
		decay:  decay,
		factor: math.Pow(0.9, 1.0/decay) - 1.0,
	}
}

func (a *fsrsAlgo) retention(cfg *domain.DeckConfig) float64 {
	if cfg.RequestRetention > 0 {
		return cfg.RequestRetention
	}
	return defaultRequestRetention
}

// retrievability computes R(t, S) = (1 + factor * t / S) ^ decay.
func (a *fsrsAlgo) retrievability(elapsedDays, stability float64) float64 {
	if stability < minimumStability {
		stability = minimumStability
	}
	return math.Pow(1+a.factor*elapsedDays/stability, a.decay)
}

// initStability returns S0(G) for a card's first rating.
func (a *fsrsAlgo) initStability(rating domain.Rating) float64 {
	return clampStability(a.w[ratingOrdinal(rating)-1])
}

// initDifficulty returns D0(G) = w[4] - e^(w[5]*(G-1)) + 1.
func (a *fsrsAlgo) initDifficulty(rating domain.Rating, clamp bool) float64 {
	d := a.w[4] - math.Exp(a.w[5]*float64(ratingOrdinal(rating)-1)) + 1
	if clamp {
		return clampDifficulty(d)
	}
	return d
}

// nextInterval converts stability into a whole-day interval at the deck's
// requested retention.
func (a *fsrsAlgo) nextInterval(stability, requestRetention float64) int {
	ivl := stability / a.factor * (math.Pow(requestRetention, 1.0/a.decay) - 1)
	rounded := int(math.Round(ivl))
	if rounded < 1 {
		return 1
	}
	if rounded > maximumIntervalDays {
		return maximumIntervalDays
	}
	return rounded
}

// shortTermStability updates stability for a same-day (steps queue) review.
func (a *fsrsAlgo) shortTermStability(stability float64, rating domain.Rating) float64 {
	g := float64(ratingOrdinal(rating))
	inc := math.Exp(a.w[17]*(g-3+a.w[18])) * math.Pow(stability, -a.w[19])
	if rating == domain.RatingGood || rating == domain.RatingEasy {
		inc = math.Max(inc, 1.0)
	}
	return clampStability(stability * inc)
}

// nextDifficulty applies linear damping and mean reversion toward D0(Easy).
func (a *fsrsAlgo) nextDifficulty(difficulty float64, rating domain.Rating) float64 {
	deltaD := -a.w[6] * (float64(ratingOrdinal(rating)) - 3)
	dPrime := difficulty + (10-difficulty)*deltaD/9
	return clampDifficulty(a.w[7]*a.initDifficulty(domain.RatingEasy, false) + (1-a.w[7])*dPrime)
}

// recallStability computes stability after a successful Review recall.
func (a *fsrsAlgo) recallStability(d, s, r float64, rating domain.Rating) float64 {
	hardPenalty := 1.0
	if rating == domain.RatingHard {
		hardPenalty = a.w[15]
	}
	easyBonus := 1.0
	if rating == domain.RatingEasy {
		easyBonus = a.w[16]
	}
	return clampStability(s * (1 + math.Exp(a.w[8])*
		(11-d)*
		math.Pow(s, -a.w[9])*
		(math.Exp((1-r)*a.w[10])-1)*
		hardPenalty*easyBonus))
}

// forgetStability computes stability after an Again in Review.
func (a *fsrsAlgo) forgetStability(d, s, r float64) float64 {
	long := a.w[11] *
		math.Pow(d, -a.w[12]) *
		(math.Pow(s+1, a.w[13]) - 1) *
		math.Exp((1-r)*a.w[14])
	short := s / math.Exp(a.w[17]*a.w[18])
	return clampStability(math.Min(long, short))
}

// scheduleFSRS applies the FSRS lineage transitions. Queue and step
// movement follow the same machinery as SM-2; memory state (stability,
// difficulty) replaces the ease factor, and graduated intervals come from
// the stability curve rather than fixed deck intervals.
func scheduleFSRS(c *domain.Card, rating domain.Rating, cfg *domain.DeckConfig, now time.Time) {
	algo := newFSRSAlgo(cfg)

	switch {
	case c.Queue == domain.QueueNew:
		c.Stability = algo.initStability(rating)
		c.Difficulty = algo.initDifficulty(rating, true)

		if rating == domain.RatingEasy {
			graduate(c, algo.nextInterval(c.Stability, algo.retention(cfg)), now)
			return
		}
		enterSteps(c, domain.QueueLearning, cfg, now)
		applyStepRating(c, rating, cfg, now, fsrsGraduator(&algo, cfg))

	case c.Queue.InSteps():
		c.Stability = algo.shortTermStability(c.Stability, rating)
		c.Difficulty = algo.nextDifficulty(c.Difficulty, rating)
		applyStepRating(c, rating, cfg, now, fsrsGraduator(&algo, cfg))

	case c.Queue == domain.QueueReview:
		reviewFSRS(c, rating, cfg, now, &algo)
	}
}

// fsrsGraduator derives the graduation interval from the card's stability.
func fsrsGraduator(algo *fsrsAlgo, cfg *domain.DeckConfig) graduator {
	return func(c *domain.Card, _ bool) int {
		return algo.nextInterval(c.Stability, algo.retention(cfg))
	}
}

// reviewFSRS handles a Review-queue rating under FSRS.
func reviewFSRS(
	c *domain.Card,
	rating domain.Rating,
	cfg *domain.DeckConfig,
	now time.Time,
	algo *fsrsAlgo,
) {
	// The last review instant is not stored on the card; for a Review
	// card it is recoverable as the scheduled date minus the interval.
	lastReview := c.NextReviewAt.AddDate(0, 0, -c.IntervalDays)
	elapsedDays := now.Sub(lastReview).Hours() / 24.0
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	r := algo.retrievability(elapsedDays, c.Stability)

	if rating == domain.RatingAgain {
		c.Lapses++
		c.Repetitions = 0
		c.Stability = algo.forgetStability(c.Difficulty, c.Stability, r)
		c.Difficulty = algo.nextDifficulty(c.Difficulty, rating)
		enterSteps(c, domain.QueueRelearning, cfg, now)
		return
	}

	c.Stability = algo.recallStability(c.Difficulty, c.Stability, r, rating)
	c.Difficulty = algo.nextDifficulty(c.Difficulty, rating)
	if rating == domain.RatingGood || rating == domain.RatingEasy {
		c.Repetitions++
	}

	graduate(c, algo.nextInterval(c.Stability, algo.retention(cfg)), now)
}

// ratingOrdinal maps domain ratings onto the 1..4 grade scale the FSRS
// formulas are defined over.
func ratingOrdinal(r domain.Rating) int {
	switch r {
	case domain.RatingAgain:
		return 1
	case domain.RatingHard:
		return 2
	case domain.RatingGood:
		return 3
	default:
		return 4
	}
}

func clampStability(s float64) float64 {
	return math.Max(s, minimumStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1.0), 10.0)
}
