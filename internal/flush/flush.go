// Package flush batches pending grid deltas and writes them through a
// Persister with at most one request in flight.
package flush

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/logging"
)

// Persister stores a batch of cell deltas atomically.
type Persister interface {
	PersistGridDeltas(ctx context.Context, studentID string, deltas []grid.Cell) error
}

// RetryPolicy controls how transient persistence failures are retried.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy makes three attempts starting at 100ms.
var DefaultRetryPolicy = RetryPolicy{
	MaxTries:        3,
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// BatchError is returned when a batch could not be stored. The deltas are
// still queued on the Flusher.
type BatchError struct {
	Deltas []grid.Cell
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("flush %d deltas: %v", len(e.Deltas), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Option configures a Flusher.
type Option func(*Flusher)

// WithRetry sets the retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(f *Flusher) { f.policy = p }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flusher) { f.logger = l }
}

// Flusher queues deltas for one student.
type Flusher struct {
	persister Persister
	studentID string
	policy    RetryPolicy
	logger    *slog.Logger

	inflight chan struct{}

	mu      sync.Mutex
	pending []grid.Cell
}

// New returns a Flusher writing studentID's deltas to p.
func New(p Persister, studentID string, opts ...Option) *Flusher {
	f := &Flusher{
		persister: p,
		studentID: studentID,
		policy:    DefaultRetryPolicy,
		logger:    logging.New("flush"),
		inflight:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(f)
	}
	if f.policy.MaxTries == 0 {
		f.policy.MaxTries = 1
	}
	return f
}

// Enqueue appends deltas to the pending queue.
func (f *Flusher) Enqueue(deltas ...grid.Cell) {
	f.mu.Lock()
	f.pending = append(f.pending, deltas...)
	f.mu.Unlock()
}

// Pending returns the number of queued deltas.
func (f *Flusher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Flush sends everything queued as a single batch. Callers arriving while
// another flush is in flight wait for it, then send whatever was queued in
// the meantime. On failure the batch goes back to the head of the queue and
// a *BatchError is returned.
func (f *Flusher) Flush(ctx context.Context) error {
	select {
	case f.inflight <- struct{}{}:
	case <-ctx.Done():
		return fault.Persistence("flush", ctx.Err())
	}
	defer func() { <-f.inflight }()

	f.mu.Lock()
	batch := f.pending
	f.pending = nil
	f.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := f.send(ctx, batch); err != nil {
		f.mu.Lock()
		f.pending = append(append(make([]grid.Cell, 0, len(batch)+len(f.pending)), batch...), f.pending...)
		f.mu.Unlock()
		return &BatchError{Deltas: batch, Err: fault.Persistence("flush", err)}
	}
	f.logger.Debug("flushed grid deltas", "student", f.studentID, "count", len(batch))
	return nil
}

func (f *Flusher) send(ctx context.Context, batch []grid.Cell) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.policy.InitialInterval
	b.MaxInterval = f.policy.MaxInterval

	try := 0
	op := func() (struct{}, error) {
		try++
		err := f.persister.PersistGridDeltas(ctx, f.studentID, batch)
		if err == nil {
			return struct{}{}, nil
		}
		if !shouldRetry(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		f.logger.Warn("persist grid deltas failed", "student", f.studentID, "try", try, "error", err)
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(f.policy.MaxTries))
	return err
}

// shouldRetry reports whether err may succeed on another attempt.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Bad input will fail the same way every time.
	return !errors.Is(err, fault.ErrValidation)
}
