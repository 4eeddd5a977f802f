package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/mathwiz/internal/auth"
	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/flush"
	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/logging"
	"github.com/abhisek/mathwiz/internal/store"
)

type fakeSession struct {
	studentID string
	typ       string
	status    store.SessionStatus
	total     int
	summary   *store.SummaryData
}

// fakeRepo is an in-memory Repo with failure injection.
type fakeRepo struct {
	mu sync.Mutex

	grids    map[string]*grid.Grid
	sessions map[string]*fakeSession
	attempts map[string][]store.AttemptData
	nextID   int

	persistCalls int
	guardrails   []grid.Guardrail

	fetchErr   error
	persistErr error
	recordErr  error
	createErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		grids:    make(map[string]*grid.Grid),
		sessions: make(map[string]*fakeSession),
		attempts: make(map[string][]store.AttemptData),
	}
}

func (r *fakeRepo) gridLocked(studentID string) *grid.Grid {
	g, ok := r.grids[studentID]
	if !ok {
		g = grid.New(studentID)
		r.grids[studentID] = g
	}
	return g
}

func (r *fakeRepo) FetchGrid(_ context.Context, studentID string) (*grid.Grid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.gridLocked(studentID).Clone(), nil
}

func (r *fakeRepo) PersistGridDeltas(_ context.Context, studentID string, deltas []grid.Cell) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistCalls++
	if r.persistErr != nil {
		return r.persistErr
	}
	g := r.gridLocked(studentID)
	for _, d := range deltas {
		if _, err := g.Apply(d); err != nil {
			return err
		}
		g.TotalAttempts++
		if d.LastAttemptCorrect {
			g.TotalCorrect++
		}
	}
	return nil
}

func (r *fakeRepo) SetGuardrail(_ context.Context, studentID string, gr grid.Guardrail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gridLocked(studentID).Guardrail = gr
	r.guardrails = append(r.guardrails, gr)
	return nil
}

func (r *fakeRepo) CreateSessionRecord(_ context.Context, studentID, sessionType string, totalItems int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	r.nextID++
	id := fmt.Sprintf("session-%d", r.nextID)
	r.sessions[id] = &fakeSession{studentID: studentID, typ: sessionType, status: store.StatusInProgress, total: totalItems}
	return id, nil
}

func (r *fakeRepo) RecordAttempt(_ context.Context, sessionID string, a store.AttemptData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recordErr != nil {
		return r.recordErr
	}
	for _, prev := range r.attempts[sessionID] {
		if prev.AttemptNumber == a.AttemptNumber {
			return errors.New("duplicate attempt number")
		}
	}
	r.attempts[sessionID] = append(r.attempts[sessionID], a)
	return nil
}

func (r *fakeRepo) CompleteSessionRecord(_ context.Context, sessionID string, s store.SummaryData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[sessionID]
	if !ok || rec.status != store.StatusInProgress {
		return errors.New("session not in progress")
	}
	rec.status = store.StatusCompleted
	rec.summary = &s
	return nil
}

func (r *fakeRepo) AbandonSessionRecord(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[sessionID]
	if !ok || rec.status != store.StatusInProgress {
		return errors.New("session not in progress")
	}
	rec.status = store.StatusAbandoned
	return nil
}

func (r *fakeRepo) setPersistErr(err error) {
	r.mu.Lock()
	r.persistErr = err
	r.mu.Unlock()
}

// seedGrid masters and locks every cell for which lock returns true.
func (r *fakeRepo) seedGrid(t *testing.T, studentID string, gr grid.Guardrail, lock func(fact.Fact) bool) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.gridLocked(studentID)
	g.Guardrail = gr
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, c := range g.Cells() {
		if !lock(c.Fact()) {
			continue
		}
		c.Attempts, c.ConsecutiveCorrect = 3, 3
		c.LastAttemptCorrect, c.IsLocked = true, true
		c.MasteredAt = &at
		if _, err := g.Apply(c); err != nil {
			t.Fatalf("seed grid: %v", err)
		}
	}
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

// fakeScheduler records timers; tests fire them by hand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		was := !t.stopped
		t.stopped = true
		return was
	}
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// fakeClock advances by step on every reading.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

func studentCtx(id string) context.Context {
	return auth.WithStudent(context.Background(), auth.Identity{StudentID: id, GradeLevel: "3"})
}

var fastRetry = flush.RetryPolicy{MaxTries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

func newTestEngine(repo Repo, opts ...Option) *Engine {
	base := []Option{
		WithRevealDelay(0),
		WithLogger(logging.Discard()),
		WithRetry(fastRetry),
		WithSeed(1),
	}
	return New(repo, append(base, opts...)...)
}
