package challenge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/logging"
	"github.com/rnwolfe/devlog/internal/observability"
)

// boardConcurrency bounds Board's parallel evaluations.
const boardConcurrency = 8

// EventSource lists activity instants for a user in [from, to).
type EventSource interface {
	ListActivityTimes(ctx context.Context, userID string, from, to *time.Time) ([]time.Time, error)
}

// WindowSource returns every window currently flagged active.
type WindowSource interface {
	ActiveWindows(ctx context.Context) ([]Window, error)
}

// Config configures an Evaluator. Zero values mean UTC, the system clock, a
// discarding logger and the 7 of 14 day default.
type Config struct {
	Location            *time.Location
	Clock               calendar.Clock
	Logger              logrus.FieldLogger
	DefaultRequiredDays int
	DefaultTotalDays    int
}

// Evaluator computes challenge progress. It never writes.
type Evaluator struct {
	events   EventSource
	windows  WindowSource
	loc      *time.Location
	clock    calendar.Clock
	log      logrus.FieldLogger
	fallback Progress
}

// NewEvaluator builds an Evaluator.
func NewEvaluator(events EventSource, windows WindowSource, cfg Config) *Evaluator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Clock == nil {
		cfg.Clock = calendar.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	fallback := Default()
	if cfg.DefaultTotalDays >= 1 && cfg.DefaultRequiredDays >= 1 && cfg.DefaultRequiredDays <= cfg.DefaultTotalDays {
		fallback = defaultWith(cfg.DefaultRequiredDays, cfg.DefaultTotalDays)
	}
	return &Evaluator{
		events:   events,
		windows:  windows,
		loc:      cfg.Location,
		clock:    cfg.Clock,
		log:      cfg.Logger,
		fallback: fallback,
	}
}

// Today is the current date in the evaluator's zone.
func (e *Evaluator) Today() calendar.Date {
	return calendar.Today(e.clock, e.loc)
}

// Evaluate computes userID's progress in w. A nil window yields the default
// result, not an error.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, w *Window) (Progress, error) {
	if w == nil {
		observability.RecordEvaluation("default")
		return e.fallback, nil
	}

	from, to := w.Range().Bounds(e.loc)
	times, err := e.events.ListActivityTimes(ctx, userID, &from, &to)
	if err != nil {
		observability.RecordEvaluation("fetch_error")
		return Progress{}, fmt.Errorf("%w: activity for %s: %v", ErrDataFetch, userID, err)
	}

	observability.RecordEvaluation("ok")
	return Compute(times, *w, e.Today(), e.loc), nil
}

// Active returns the active window or nil. Duplicate active rows are logged
// and resolved by PickActive.
func (e *Evaluator) Active(ctx context.Context) (*Window, error) {
	ws, err := e.windows.ActiveWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: active window: %v", ErrDataFetch, err)
	}
	w, err := PickActive(ws)
	if errors.Is(err, ErrMultipleActive) {
		observability.RecordInvariantViolation("multiple_active_windows")
		ids := make([]int64, len(ws))
		for i := range ws {
			ids[i] = ws[i].ID
		}
		e.log.WithError(err).WithFields(logrus.Fields{
			"window_ids": ids,
			"window_id":  w.ID,
		}).Error("more than one active challenge window; using the newest")
		return w, nil
	}
	return w, err
}

// Progress evaluates userID against the active window.
func (e *Evaluator) Progress(ctx context.Context, userID string) (Progress, error) {
	w, err := e.Active(ctx)
	if err != nil {
		return Progress{}, err
	}
	return e.Evaluate(ctx, userID, w)
}

// Standing is one user's row on the challenge board.
type Standing struct {
	UserID string `json:"user_id"`
	Progress
}

// Board evaluates every user against the active window, best first (written
// days descending, then user ID). With no active window it returns nil.
func (e *Evaluator) Board(ctx context.Context, userIDs []string) (*Window, []Standing, error) {
	w, err := e.Active(ctx)
	if err != nil || w == nil {
		return nil, nil, err
	}

	standings := make([]Standing, len(userIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(boardConcurrency)
	for i, id := range userIDs {
		g.Go(func() error {
			p, err := e.Evaluate(ctx, id, w)
			if err != nil {
				return err
			}
			p.Window = nil
			standings[i] = Standing{UserID: id, Progress: p}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].WrittenDays != standings[j].WrittenDays {
			return standings[i].WrittenDays > standings[j].WrittenDays
		}
		return standings[i].UserID < standings[j].UserID
	})
	return w, standings, nil
}
