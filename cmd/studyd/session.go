package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/domain/srs"
	"github.com/lexvault/lexvault/internal/service/study"
)

// studySession drives the interactive prompt loop: show a card's term,
// reveal the answer, read a rating, submit. Every review carries the
// session ID and elapsed time as event metadata.
type studySession struct {
	service     study.StudyService
	deckID      uuid.UUID
	ignoreLimit bool
	sessionID   uuid.UUID
	in          *bufio.Reader
	out         io.Writer
}

func newStudySession(
	service study.StudyService,
	deckID uuid.UUID,
	ignoreLimit bool,
	in io.Reader,
	out io.Writer,
) *studySession {
	return &studySession{
		service:     service,
		deckID:      deckID,
		ignoreLimit: ignoreLimit,
		sessionID:   uuid.New(),
		in:          bufio.NewReader(in),
		out:         out,
	}
}

var ratingKeys = map[string]domain.Rating{
	"1": domain.RatingAgain,
	"2": domain.RatingHard,
	"3": domain.RatingGood,
	"4": domain.RatingEasy,
}

func (s *studySession) run(ctx context.Context) error {
	reviewed := 0
	for {
		if ctx.Err() != nil {
			break
		}

		next, err := s.service.GetNextCard(ctx, s.deckID, study.NextCardOptions{
			IgnoreDailyLimit: s.ignoreLimit,
		})
		if errors.Is(err, study.ErrNoCardsDue) {
			counts, countErr := s.service.GetQueueCounts(ctx, s.deckID)
			if countErr == nil && counts.New > 0 && !s.ignoreLimit {
				fmt.Fprintf(s.out,
					"Done for today. %d new cards remain behind the daily limit.\n", counts.New)
			} else {
				fmt.Fprintln(s.out, "Nothing due. Come back later.")
			}
			break
		}
		if err != nil {
			return fmt.Errorf("failed to get next card: %w", err)
		}

		fmt.Fprintf(s.out, "\n[new %d | learning %d | review %d]\n",
			next.Counts.New, next.Counts.Learning, next.Counts.Review)
		fmt.Fprintf(s.out, "%s  (%s)\n", prompt(next), next.Card.Type)
		fmt.Fprint(s.out, "press enter to reveal... ")

		started := time.Now()
		if _, err := s.in.ReadString('\n'); err != nil {
			break
		}

		fmt.Fprintf(s.out, "%s", answer(next))
		s.printPreviews(next)

		rating, quit := s.readRating()
		if quit {
			break
		}

		spent := int(time.Since(started).Milliseconds())
		result, err := s.service.SubmitReview(ctx, next.Card.ID, study.ReviewSubmission{
			Rating:      rating,
			SessionID:   &s.sessionID,
			TimeSpentMs: &spent,
		})
		if err != nil {
			return fmt.Errorf("failed to submit review: %w", err)
		}
		reviewed++

		fmt.Fprintf(s.out, "-> %s, due %s\n",
			result.NextQueue, result.NextDue.Local().Format("2006-01-02 15:04"))
	}

	fmt.Fprintf(s.out, "\nSession over: %d cards reviewed.\n", reviewed)
	return nil
}

// prompt returns the side of the card shown before reveal. Production
// cards quiz meaning-to-term; the other types show the term.
func prompt(next *study.NextCard) string {
	if next.Card.Type == domain.CardTypeProduction {
		return next.Note.Meaning
	}
	return next.Note.Term
}

func answer(next *study.NextCard) string {
	note := next.Note
	if next.Card.Type == domain.CardTypeProduction {
		if note.Reading != "" {
			return fmt.Sprintf("%s [%s]\n", note.Term, note.Reading)
		}
		return note.Term + "\n"
	}
	if note.Reading != "" {
		return fmt.Sprintf("%s [%s]\n", note.Meaning, note.Reading)
	}
	return note.Meaning + "\n"
}

func (s *studySession) printPreviews(next *study.NextCard) {
	parts := make([]string, 0, len(next.Previews))
	for i, preview := range next.Previews {
		parts = append(parts,
			fmt.Sprintf("%d=%s (%s)", i+1, preview.Rating, previewDelay(preview)))
	}
	fmt.Fprintf(s.out, "%s  q=quit\n", strings.Join(parts, "  "))
}

// previewDelay formats a preview's delay compactly: days for review
// intervals, minutes for step queues.
func previewDelay(preview srs.IntervalPreview) string {
	if preview.IntervalDays > 0 {
		return fmt.Sprintf("%dd", preview.IntervalDays)
	}
	d := time.Until(preview.Due).Round(time.Minute)
	if d < time.Minute {
		d = time.Minute
	}
	return d.String()
}

func (s *studySession) readRating() (domain.Rating, bool) {
	for {
		fmt.Fprint(s.out, "rating> ")
		line, err := s.in.ReadString('\n')
		if err != nil {
			return "", true
		}
		key := strings.TrimSpace(line)
		if key == "q" {
			return "", true
		}
		if rating, ok := ratingKeys[key]; ok {
			return rating, false
		}
		fmt.Fprintln(s.out, "enter 1-4 or q")
	}
}
