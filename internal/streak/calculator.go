package streak

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/logging"
	"github.com/rnwolfe/devlog/internal/observability"
)

// sweepConcurrency bounds RecomputeAll.
const sweepConcurrency = 4

// Config configures a Calculator. Zero values mean UTC, PolicyStrict, the
// system clock and a discarding logger.
type Config struct {
	Location *time.Location
	Policy   Policy
	Clock    calendar.Clock
	Logger   logrus.FieldLogger
}

// Calculator recomputes and persists streak aggregates.
type Calculator struct {
	events EventSource
	store  AggregateStore
	loc    *time.Location
	policy Policy
	clock  calendar.Clock
	log    logrus.FieldLogger
	locks  *userLocks
}

// NewCalculator builds a Calculator over events and store.
func NewCalculator(events EventSource, store AggregateStore, cfg Config) *Calculator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyStrict
	}
	if cfg.Clock == nil {
		cfg.Clock = calendar.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Calculator{
		events: events,
		store:  store,
		loc:    cfg.Location,
		policy: cfg.Policy,
		clock:  cfg.Clock,
		log:    cfg.Logger,
		locks:  newUserLocks(),
	}
}

// Policy reports the policy this calculator applies.
func (c *Calculator) Policy() Policy { return c.policy }

// Recompute derives the user's aggregate from all of their events and
// overwrites the stored row. If the fetch fails nothing is written; if the
// write fails the previous row is left as it was.
func (c *Calculator) Recompute(ctx context.Context, userID string) (Aggregate, error) {
	unlock := c.locks.lock(userID)
	defer unlock()

	start := time.Now()
	log := c.log.WithField("user_id", userID)

	// Stamp before the fetch: a row stamped later than this may hold events
	// this read missed, and the store keeps the later row.
	snapshot := c.clock.Now()
	times, err := c.events.ListActivityTimes(ctx, userID, nil, nil)
	if err != nil {
		observability.RecordRecompute("fetch_error", time.Since(start))
		log.WithError(err).Warn("streak recompute aborted")
		return Aggregate{}, fmt.Errorf("%w: user %s: %v", ErrDataFetch, userID, err)
	}

	agg := c.derive(userID, times, snapshot)
	if err := agg.Validate(); err != nil {
		observability.RecordRecompute("write_error", time.Since(start))
		return Aggregate{}, err
	}
	if err := c.store.PutAggregate(ctx, agg); err != nil {
		observability.RecordRecompute("write_error", time.Since(start))
		log.WithError(err).Warn("streak aggregate not stored")
		return Aggregate{}, fmt.Errorf("storing streak for %s: %w", userID, err)
	}

	observability.RecordRecompute("ok", time.Since(start))
	log.WithFields(logrus.Fields{
		"streak":     agg.CurrentStreak,
		"longest":    agg.LongestStreak,
		"total_logs": agg.TotalLogs,
	}).Debug("streak recomputed")
	return agg, nil
}

func (c *Calculator) derive(userID string, times []time.Time, now time.Time) Aggregate {
	days := calendar.NewSet(times, c.loc)
	info := Compute(days, calendar.In(now, c.loc), c.policy)

	agg := Aggregate{
		UserID:        userID,
		CurrentStreak: info.Current,
		LongestStreak: info.Longest,
		TotalLogs:     len(times),
		RecomputedAt:  now.UTC(),
	}
	if latest, ok := days.Latest(); ok {
		agg.LastActivity = &latest
	}
	return agg
}

// Get returns the stored aggregate, or an empty one for a user that has
// never been recomputed.
func (c *Calculator) Get(ctx context.Context, userID string) (Aggregate, error) {
	a, err := c.store.GetAggregate(ctx, userID)
	if err != nil {
		return Aggregate{}, fmt.Errorf("%w: reading streak for %s: %v", ErrDataFetch, userID, err)
	}
	if a == nil {
		return Aggregate{UserID: userID}, nil
	}
	return *a, nil
}

// RecomputeAll recomputes every user in userIDs, a few at a time. Failures
// for one user do not stop the others; they are returned joined. The count
// is the number of users recomputed successfully.
func (c *Calculator) RecomputeAll(ctx context.Context, userIDs []string) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	var (
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for _, id := range userIDs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			_, err := c.Recompute(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			ok++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return ok, errors.Join(errs...)
}
