// Package tracker is the in-process entry point the application layer calls:
// it pairs every post mutation with a synchronous streak recompute and serves
// the streak and challenge read models.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rnwolfe/devlog/internal/activity"
	"github.com/rnwolfe/devlog/internal/calendar"
	"github.com/rnwolfe/devlog/internal/challenge"
	"github.com/rnwolfe/devlog/internal/config"
	"github.com/rnwolfe/devlog/internal/logging"
	"github.com/rnwolfe/devlog/internal/observability"
	"github.com/rnwolfe/devlog/internal/streak"
)

// Options configures a Tracker.
type Options struct {
	Location            *time.Location
	Policy              streak.Policy
	Clock               calendar.Clock
	Logger              logrus.FieldLogger
	DefaultRequiredDays int
	DefaultTotalDays    int
}

// OptionsFromConfig maps the loaded config onto Options.
func OptionsFromConfig(cfg *config.Config, log logrus.FieldLogger) (Options, error) {
	loc, err := calendar.LoadZone(cfg.Calendar.Timezone)
	if err != nil {
		return Options{}, err
	}
	policy, err := streak.ParsePolicy(cfg.Streak.Policy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Location:            loc,
		Policy:              policy,
		Logger:              log,
		DefaultRequiredDays: cfg.Challenge.DefaultRequiredDays,
		DefaultTotalDays:    cfg.Challenge.DefaultTotalDays,
	}, nil
}

// Tracker ties posts, streaks and challenges together over one Backend.
type Tracker struct {
	backend   Backend
	streaks   *streak.Calculator
	challenge *challenge.Evaluator
	loc       *time.Location
	clock     calendar.Clock
	log       logrus.FieldLogger
	defaults  challenge.Progress
}

// New builds a Tracker. Zero options mean UTC, strict streaks, the system
// clock and the 7 of 14 day default challenge.
func New(b Backend, opts Options) *Tracker {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = calendar.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.DefaultTotalDays < 1 {
		opts.DefaultTotalDays = challenge.DefaultTotalDays
	}
	if opts.DefaultRequiredDays < 1 || opts.DefaultRequiredDays > opts.DefaultTotalDays {
		opts.DefaultRequiredDays = min(challenge.DefaultRequiredDays, opts.DefaultTotalDays)
	}

	return &Tracker{
		backend: b,
		streaks: streak.NewCalculator(b, b, streak.Config{
			Location: opts.Location,
			Policy:   opts.Policy,
			Clock:    opts.Clock,
			Logger:   opts.Logger,
		}),
		challenge: challenge.NewEvaluator(b, b, challenge.Config{
			Location:            opts.Location,
			Clock:               opts.Clock,
			Logger:              opts.Logger,
			DefaultRequiredDays: opts.DefaultRequiredDays,
			DefaultTotalDays:    opts.DefaultTotalDays,
		}),
		loc:   opts.Location,
		clock: opts.Clock,
		log:   opts.Logger,
		defaults: challenge.Progress{
			RequiredDays: opts.DefaultRequiredDays,
			TotalDays:    opts.DefaultTotalDays,
		},
	}
}

// Close closes the backend.
func (t *Tracker) Close() error {
	return t.backend.Close()
}

// Today is the current date in the reference zone.
func (t *Tracker) Today() calendar.Date {
	return calendar.Today(t.clock, t.loc)
}

// Location is the reference zone.
func (t *Tracker) Location() *time.Location {
	return t.loc
}

// Policy is the streak policy in effect.
func (t *Tracker) Policy() streak.Policy {
	return t.streaks.Policy()
}

// OnPostCreated recomputes the author's streak. The posting flow calls it
// before reporting success.
func (t *Tracker) OnPostCreated(ctx context.Context, userID string) (streak.Aggregate, error) {
	return t.streaks.Recompute(ctx, userID)
}

// OnPostDeleted recomputes the author's streak after a delete.
func (t *Tracker) OnPostDeleted(ctx context.Context, userID string) (streak.Aggregate, error) {
	return t.streaks.Recompute(ctx, userID)
}

// CreatePost stores a new post and recomputes the author's streak. If the
// recompute fails the post is still returned alongside the error.
func (t *Tracker) CreatePost(ctx context.Context, in activity.NewPost) (activity.Post, streak.Aggregate, error) {
	p, err := in.Build(t.clock.Now())
	if err != nil {
		return activity.Post{}, streak.Aggregate{}, err
	}
	if err := t.backend.CreatePost(ctx, p); err != nil {
		return activity.Post{}, streak.Aggregate{}, err
	}
	t.log.WithFields(logrus.Fields{"user_id": p.UserID, "post_id": p.ID}).Info("post created")

	agg, err := t.OnPostCreated(ctx, p.UserID)
	if err != nil {
		return p, streak.Aggregate{}, fmt.Errorf("post saved but streak not updated: %w", err)
	}
	return p, agg, nil
}

// UpdatePost edits a post. The creation time is untouched, so the streak
// does not change.
func (t *Tracker) UpdatePost(ctx context.Context, userID, postID string, e activity.PostEdit) (activity.Post, error) {
	if err := activity.Validate(e); err != nil {
		return activity.Post{}, err
	}
	if err := t.backend.UpdatePost(ctx, userID, postID, e, t.clock.Now()); err != nil {
		return activity.Post{}, err
	}
	return t.backend.GetPost(ctx, userID, postID)
}

// DeletePost removes a post owned by userID and recomputes their streak.
func (t *Tracker) DeletePost(ctx context.Context, userID, postID string) (streak.Aggregate, error) {
	if err := t.backend.DeletePost(ctx, userID, postID); err != nil {
		return streak.Aggregate{}, err
	}
	t.log.WithFields(logrus.Fields{"user_id": userID, "post_id": postID}).Info("post deleted")

	agg, err := t.OnPostDeleted(ctx, userID)
	if err != nil {
		return streak.Aggregate{}, fmt.Errorf("post deleted but streak not updated: %w", err)
	}
	return agg, nil
}

// Post returns one post owned by userID.
func (t *Tracker) Post(ctx context.Context, userID, postID string) (activity.Post, error) {
	return t.backend.GetPost(ctx, userID, postID)
}

// Posts lists a user's most recent posts.
func (t *Tracker) Posts(ctx context.Context, userID string, limit int) ([]activity.Post, error) {
	return t.backend.ListPosts(ctx, userID, limit)
}

// Streak returns the stored aggregate for userID.
func (t *Tracker) Streak(ctx context.Context, userID string) (streak.Aggregate, error) {
	return t.streaks.Get(ctx, userID)
}

// Streaks returns every stored aggregate, longest current streak first.
func (t *Tracker) Streaks(ctx context.Context) ([]streak.Aggregate, error) {
	return t.backend.ListAggregates(ctx)
}

// RecomputeStreak forces a recompute for userID.
func (t *Tracker) RecomputeStreak(ctx context.Context, userID string) (streak.Aggregate, error) {
	return t.streaks.Recompute(ctx, userID)
}

// SweepStreaks recomputes every known user so streaks reflect days that
// passed without a post. It returns how many users were recomputed.
func (t *Tracker) SweepStreaks(ctx context.Context) (int, error) {
	ids, err := t.knownUsers(ctx)
	if err != nil {
		return 0, err
	}
	n, err := t.streaks.RecomputeAll(ctx, ids)
	observability.RecordSweep(t.clock.Now(), n)
	t.log.WithFields(logrus.Fields{"users": n, "failed": len(ids) - n}).Info("streak sweep finished")
	return n, err
}

// knownUsers is everyone with a post or a stored aggregate.
func (t *Tracker) knownUsers(ctx context.Context) ([]string, error) {
	ids, err := t.backend.UserIDs(ctx)
	if err != nil {
		return nil, err
	}
	aggs, err := t.backend.ListAggregates(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids)+len(aggs))
	for _, id := range ids {
		seen[id] = true
	}
	for _, a := range aggs {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ChallengeProgress is userID's progress in the active challenge, or the
// default result when none is active.
func (t *Tracker) ChallengeProgress(ctx context.Context, userID string) (challenge.Progress, error) {
	return t.challenge.Progress(ctx, userID)
}

// ActiveChallenge returns the active window or nil.
func (t *Tracker) ActiveChallenge(ctx context.Context) (*challenge.Window, error) {
	return t.challenge.Active(ctx)
}

// ChallengeInput describes a new challenge. Zero Start means today, zero
// TotalDays the configured default length, and zero RequiredDays the
// configured default capped at TotalDays.
type ChallengeInput struct {
	Start        calendar.Date `json:"start_date"`
	TotalDays    int           `json:"total_days"`
	RequiredDays int           `json:"required_days"`
	CreatedBy    string        `json:"created_by"`
}

// CreateChallenge activates a new window, deactivating any previous one in
// the same transaction.
func (t *Tracker) CreateChallenge(ctx context.Context, in ChallengeInput) (challenge.Window, error) {
	if in.Start.IsZero() {
		in.Start = t.Today()
	}
	if in.TotalDays == 0 {
		in.TotalDays = t.defaults.TotalDays
	}
	if in.RequiredDays == 0 {
		in.RequiredDays = min(t.defaults.RequiredDays, in.TotalDays)
	}

	w, err := challenge.NewWindow(in.Start, in.TotalDays, in.RequiredDays, in.CreatedBy)
	if err != nil {
		return challenge.Window{}, err
	}
	w.CreatedAt = t.clock.Now().UTC()

	w, err = t.backend.CreateWindow(ctx, w)
	if err != nil {
		return challenge.Window{}, err
	}
	observability.RecordWindowCreated()
	t.log.WithFields(logrus.Fields{
		"window_id":     w.ID,
		"start_date":    w.StartDate.String(),
		"end_date":      w.EndDate.String(),
		"required_days": w.RequiredDays,
	}).Info("challenge window activated")
	return w, nil
}

// EndChallenge deactivates the current window. It reports whether one was active.
func (t *Tracker) EndChallenge(ctx context.Context) (bool, error) {
	n, err := t.backend.DeactivateAll(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		t.log.WithField("windows", n).Info("challenge ended")
	}
	return n > 0, nil
}

// Challenges lists every window, newest first.
func (t *Tracker) Challenges(ctx context.Context) ([]challenge.Window, error) {
	return t.backend.ListWindows(ctx)
}

// Challenge returns one window by ID.
func (t *Tracker) Challenge(ctx context.Context, id int64) (challenge.Window, error) {
	return t.backend.GetWindow(ctx, id)
}

// Board ranks every posting user in the active challenge.
func (t *Tracker) Board(ctx context.Context) (*challenge.Window, []challenge.Standing, error) {
	ids, err := t.backend.UserIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return t.challenge.Board(ctx, ids)
}

// Heatmap returns per-day post counts for the last weeks weeks.
func (t *Tracker) Heatmap(ctx context.Context, userID string, weeks int) ([]activity.HeatCell, error) {
	if weeks <= 0 {
		weeks = activity.DefaultHeatmapWeeks
	}
	today := t.Today()
	span := calendar.Range{From: today.AddDays(-(weeks*7 - 1)), To: today}
	from, to := span.Bounds(t.loc)

	times, err := t.backend.ListActivityTimes(ctx, userID, &from, &to)
	if err != nil {
		return nil, err
	}
	return activity.Heatmap(times, today, weeks, t.loc), nil
}

// Leaderboard ranks users by total posts.
func (t *Tracker) Leaderboard(ctx context.Context, limit int) ([]activity.Rank, error) {
	counts, err := t.backend.PostCounts(ctx)
	if err != nil {
		return nil, err
	}
	return activity.Leaderboard(counts, limit), nil
}

// IsNotFound reports whether err means the requested post or window does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, activity.ErrPostNotFound) || errors.Is(err, challenge.ErrWindowNotFound)
}

// IsInvalid reports whether err is an input validation failure.
func IsInvalid(err error) bool {
	return errors.Is(err, activity.ErrInvalidPost) || errors.Is(err, challenge.ErrInvalidWindow)
}
