package session

import (
	"log/slog"
	"time"

	"github.com/abhisek/mathwiz/internal/flush"
	"github.com/abhisek/mathwiz/internal/logging"
	"github.com/abhisek/mathwiz/internal/mastery"
	"github.com/abhisek/mathwiz/internal/selector"
)

// Defaults used when no option overrides them.
const (
	DefaultPracticeLength = 20
	DefaultRevealDelay    = 2 * time.Second
)

type options struct {
	thresholds      mastery.Thresholds
	placementLength int
	practiceLength  int
	revealDelay     time.Duration
	scheduler       Scheduler
	now             func() time.Time
	logger          *slog.Logger
	retry           flush.RetryPolicy
	seed            *uint64
	onAdvance       func(*Problem)
}

func defaultOptions() options {
	return options{
		thresholds:      mastery.DefaultThresholds,
		placementLength: selector.DefaultPlacementLength,
		practiceLength:  DefaultPracticeLength,
		revealDelay:     DefaultRevealDelay,
		scheduler:       realScheduler{},
		now:             time.Now,
		logger:          logging.New("session"),
		retry:           flush.DefaultRetryPolicy,
	}
}

// Option configures an Engine.
type Option func(*options)

// WithThresholds sets the response time buckets.
func WithThresholds(t mastery.Thresholds) Option {
	return func(o *options) { o.thresholds = t }
}

// WithPlacementLength sets the number of placement items.
func WithPlacementLength(n int) Option {
	return func(o *options) { o.placementLength = n }
}

// WithPracticeLength sets the maximum number of practice problems.
func WithPracticeLength(n int) Option {
	return func(o *options) { o.practiceLength = n }
}

// WithRevealDelay sets how long a result stays on screen before the engine
// advances on its own. Zero disables auto-advance.
func WithRevealDelay(d time.Duration) Option {
	return func(o *options) { o.revealDelay = d }
}

// WithScheduler replaces the timer used for auto-advance.
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the engine's logger. The default is the process logger
// tagged component=session.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRetry sets the retry policy for flushing grid updates.
func WithRetry(p flush.RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

// WithSeed fixes the practice selection seed. By default it is derived from
// the student and the start time.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// OnAdvance registers a callback run after the reveal timer advances the
// session. It receives the next problem, or nil once the session completes.
// The callback runs on the timer goroutine without the engine lock held.
func OnAdvance(fn func(*Problem)) Option {
	return func(o *options) { o.onAdvance = fn }
}
