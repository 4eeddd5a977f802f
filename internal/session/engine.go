// Package session runs one placement or practice session for one student.
//
// An Engine walks the phases NotStarted → AwaitingAnswer ⇄ ShowingResult →
// Completed. Answers update a working copy of the student's grid; the
// resulting cell deltas are queued and written in a single batch when the
// session completes. Every method is safe to call while the reveal timer
// goroutine is running.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/mathwiz/internal/auth"
	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/flush"
	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/mastery"
	"github.com/abhisek/mathwiz/internal/selector"
	"github.com/abhisek/mathwiz/internal/store"
)

// Problem is a fact presented to the student.
type Problem struct {
	Fact  fact.Fact
	Index int // Zero-based position in the session
	Total int // Planned session length
	Band  fact.Band
}

// Result is the outcome of one submitted answer.
type Result struct {
	Fact          fact.Fact
	UserAnswer    int
	Correct       bool
	CorrectAnswer int
	TimeSpent     time.Duration
	TimeClass     grid.TimeClass
	Mastered      bool // This answer completed the mastery streak
	AttemptNumber int
}

// Snapshot is a read-only view of an engine for display.
type Snapshot struct {
	Phase          Phase
	Type           Type
	SessionID      string
	StudentID      string
	Current        *Problem
	Answered       int
	Correct        int
	IncorrectFacts []fact.Fact
	Pending        int
	Guardrail      grid.Guardrail
}

// Engine drives a single session. Create one per session.
type Engine struct {
	repo Repo
	opts options
	log  *slog.Logger

	mu        sync.Mutex
	phase     Phase
	typ       Type
	student   auth.Identity
	sessionID string
	grid      *grid.Grid
	startedAt time.Time

	queue    []fact.Fact
	index    int
	current  *Problem
	practice *selector.Practice

	attempts   attemptLog
	incorrect  map[fact.Fact]bool
	missed     []fact.Fact
	mastered   []fact.Fact
	flusher    *flush.Flusher
	timer      revealTimer
	widened    bool
	storedRail grid.Guardrail

	// Completion steps already done, so a retried Complete resumes.
	guardrailSaved bool
	summary        *Summary
}

// New returns an engine in PhaseNotStarted.
func New(repo Repo, opts ...Option) *Engine {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Engine{
		repo:      repo,
		opts:      o,
		log:       o.logger,
		phase:     PhaseNotStarted,
		incorrect: make(map[fact.Fact]bool),
	}
}

// Start begins a session for the student on ctx and returns the first
// problem. bounds overrides the stored guardrail for a practice session;
// pass "" to use the stored one. Placement ignores bounds.
func (e *Engine) Start(ctx context.Context, typ Type, bounds grid.Guardrail) (*Problem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseNotStarted {
		return nil, fault.InvalidTransition("start", e.phase.String())
	}
	id, err := auth.StudentFrom(ctx)
	if err != nil {
		return nil, err
	}
	if typ != TypePlacement && typ != TypePractice {
		return nil, fault.Validation("start", "unknown session type %q", typ)
	}
	if bounds != "" && !bounds.Valid() {
		return nil, fault.Validation("start", "unknown guardrail %q", bounds)
	}
	if err := e.opts.thresholds.Validate(); err != nil {
		return nil, fault.Validation("start", "%v", err)
	}

	g, err := e.repo.FetchGrid(ctx, id.StudentID)
	if err != nil {
		return nil, persistence("start", err)
	}
	e.storedRail = g.Guardrail
	e.grid = g
	e.student = id
	e.typ = typ

	seed := selector.Seed(id.StudentID, id.GradeLevel)
	var total int
	switch typ {
	case TypePlacement:
		e.queue, err = selector.Placement(seed, e.opts.placementLength)
		if err != nil {
			return nil, fault.Validation("start", "%v", err)
		}
		total = len(e.queue)
	case TypePractice:
		if bounds != "" {
			g.Guardrail = bounds
		}
		if e.opts.practiceLength <= 0 {
			return nil, fault.Validation("start", "practice length must be positive")
		}
		e.widened = false
		if e.opts.seed != nil {
			seed = *e.opts.seed
		} else {
			seed ^= uint64(e.opts.now().UnixNano())
		}
		e.practice = selector.NewPractice(seed)
		f, ok := e.pickLocked(nil)
		if !ok {
			return nil, fault.Validation("start", "every fact up to 12 is mastered; nothing left to practice")
		}
		e.queue = []fact.Fact{f}
		total = e.opts.practiceLength
	}

	sessionID, err := e.repo.CreateSessionRecord(ctx, id.StudentID, string(typ), total)
	if err != nil {
		return nil, persistence("start", err)
	}
	e.sessionID = sessionID
	e.startedAt = e.opts.now()
	e.flusher = flush.New(e.repo, id.StudentID, flush.WithRetry(e.opts.retry), flush.WithLogger(e.log))
	e.log = e.log.With(slog.String("session", sessionID), slog.String("student", id.StudentID))

	e.phase = PhaseInProgress
	e.index = 0
	e.current = e.problemLocked(total)
	e.phase = PhaseAwaitingAnswer

	e.log.Info("session started", "type", typ, "guardrail", g.Guardrail, "total", total)
	return e.problemCopy(), nil
}

// SubmitAnswer scores raw against the current problem. A non-integer answer
// is a validation error and leaves the session where it was.
func (e *Engine) SubmitAnswer(ctx context.Context, raw string, timeSpent time.Duration) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseAwaitingAnswer {
		return Result{}, fault.InvalidTransition("submit answer", e.phase.String())
	}
	answer, err := ParseAnswer(raw)
	if err != nil {
		return Result{}, err
	}
	if timeSpent < 0 {
		timeSpent = 0
	}

	f := e.current.Fact
	a := mastery.Score(f, answer, timeSpent.Seconds(), e.attempts.next())
	cell := e.grid.CellFor(f)
	if err := mastery.Check(cell, a); err != nil {
		return Result{}, fault.Validation("submit answer", "%v", err)
	}
	if err := e.attempts.append(a); err != nil {
		return Result{}, fault.Validation("submit answer", "%v", err)
	}

	next, transition := mastery.Update(cell, a, e.opts.thresholds, e.opts.now())
	if _, err := e.grid.Apply(next); err != nil {
		return Result{}, fault.Validation("submit answer", "%v", err)
	}
	e.flusher.Enqueue(next)

	if !a.Correct && !e.incorrect[f] {
		e.incorrect[f] = true
		e.missed = append(e.missed, f)
	}

	res := Result{
		Fact:          f,
		UserAnswer:    answer,
		Correct:       a.Correct,
		CorrectAnswer: f.Answer(),
		TimeSpent:     timeSpent,
		TimeClass:     next.LastTimeClass,
		AttemptNumber: a.Number,
	}
	if transition != nil {
		e.log.Debug("mastery transition", "fact", f, "from", transition.From, "to", transition.To)
		if transition.To == mastery.StateMastered {
			res.Mastered = true
			e.mastered = append(e.mastered, f)
			e.log.Info("fact mastered", "fact", f)
		}
	}

	if err := e.repo.RecordAttempt(ctx, e.sessionID, store.AttemptData{
		AttemptNumber:    a.Number,
		Fact:             f,
		UserAnswer:       answer,
		CorrectAnswer:    f.Answer(),
		Correct:          a.Correct,
		TimeSpentSeconds: a.TimeSpentSeconds,
		TimeClass:        next.LastTimeClass,
		At:               e.opts.now(),
	}); err != nil {
		e.log.Warn("record attempt failed", "attempt", a.Number, "error", err)
	}

	e.phase = PhaseShowingResult
	if e.opts.revealDelay > 0 {
		e.timer.arm(e.opts.scheduler, e.opts.revealDelay, e.autoAdvance)
	}
	return res, nil
}

// Advance moves past the result on screen. It returns the next problem, or
// nil once the session has reached PhaseCompleted.
func (e *Engine) Advance(ctx context.Context) (*Problem, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseShowingResult {
		return nil, fault.InvalidTransition("advance", e.phase.String())
	}
	return e.advanceLocked(), nil
}

func (e *Engine) advanceLocked() *Problem {
	e.timer.cancel()
	e.phase = PhaseInProgress

	switch e.typ {
	case TypePlacement:
		if e.index+1 >= len(e.queue) {
			return e.completeLocked()
		}
	case TypePractice:
		if e.attempts.len() >= e.opts.practiceLength {
			return e.completeLocked()
		}
		prev := e.current.Fact
		f, ok := e.pickLocked(&prev)
		if !ok {
			return e.completeLocked()
		}
		e.queue = append(e.queue, f)
	}

	e.index++
	e.current = e.problemLocked(e.current.Total)
	e.phase = PhaseAwaitingAnswer
	return e.problemCopy()
}

func (e *Engine) completeLocked() *Problem {
	e.current = nil
	e.phase = PhaseCompleted
	e.log.Info("session finished", "answered", e.attempts.len())
	return nil
}

// pickLocked asks the practice policy for the next fact, widening the
// working guardrail as often as it asks. ok is false when nothing is left.
func (e *Engine) pickLocked(prev *fact.Fact) (fact.Fact, bool) {
	for {
		d := e.practice.Next(e.grid, selector.History{Previous: prev, Incorrect: e.incorrect})
		switch d.Kind {
		case selector.DecisionPick:
			return d.Fact, true
		case selector.DecisionWiden:
			e.log.Info("guardrail widened", "from", e.grid.Guardrail, "to", d.Guardrail)
			e.grid.Guardrail = d.Guardrail
			e.widened = true
		default:
			return fact.Fact{}, false
		}
	}
}

func (e *Engine) autoAdvance(gen uint64) {
	e.mu.Lock()
	if !e.timer.current(gen) || e.phase != PhaseShowingResult {
		e.mu.Unlock()
		return
	}
	p := e.advanceLocked()
	cb := e.opts.onAdvance
	e.mu.Unlock()

	if cb != nil {
		cb(p)
	}
}

// Complete writes the session's grid updates in one batch, saves any
// guardrail change and closes the session record. On failure the pending
// updates are kept and Complete may be called again; after success it
// returns InvalidTransition.
func (e *Engine) Complete(ctx context.Context) (*Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseCompleted || e.summary != nil {
		return nil, fault.InvalidTransition("complete", e.phaseLabel())
	}

	sum, err := buildSummary(e.attempts.all(), e.opts.thresholds)
	if err != nil {
		return nil, err
	}

	if err := e.flusher.Flush(ctx); err != nil {
		e.log.Error("flush grid updates failed", "pending", e.flusher.Pending(), "error", err)
		return nil, err
	}

	rail := e.finalGuardrail()
	if !e.guardrailSaved {
		if rail != e.storedRail {
			if err := e.repo.SetGuardrail(ctx, e.student.StudentID, rail); err != nil {
				return nil, persistence("complete", err)
			}
			e.log.Info("guardrail saved", "from", e.storedRail, "to", rail)
		}
		e.guardrailSaved = true
	}

	sum.SessionID = e.sessionID
	sum.Type = e.typ
	sum.Duration = e.opts.now().Sub(e.startedAt)
	sum.IncorrectFacts = append([]fact.Fact(nil), e.missed...)
	sum.Mastered = append([]fact.Fact(nil), e.mastered...)
	sum.Guardrail = rail

	if err := e.repo.CompleteSessionRecord(ctx, e.sessionID, sum.data()); err != nil {
		return nil, persistence("complete", err)
	}

	e.summary = &sum
	e.log.Info("session completed", "correct", sum.CorrectAnswers, "total", sum.TotalProblems, "accuracy", sum.Accuracy)
	out := sum
	return &out, nil
}

// finalGuardrail is the bound to store once the session completes: the
// recommendation for placement, the widened working bound for practice when
// it ends up wider than the stored one. Practice never narrows the stored
// bound.
func (e *Engine) finalGuardrail() grid.Guardrail {
	if e.typ == TypePlacement {
		results := make([]selector.PlacementResult, 0, e.attempts.len())
		for _, a := range e.attempts.all() {
			results = append(results, selector.PlacementResult{Fact: a.Fact, Correct: a.Correct})
		}
		return selector.Recommend(results)
	}
	if e.widened && e.grid.Guardrail.Bound() > e.storedRail.Bound() {
		return e.grid.Guardrail
	}
	return e.storedRail
}

// Abandon ends the session without saving grid updates. The session record,
// if one was created, is closed as abandoned.
func (e *Engine) Abandon(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase.Terminal() {
		return fault.InvalidTransition("abandon", e.phase.String())
	}
	e.timer.cancel()
	from := e.phase
	e.phase = PhaseAbandoned
	e.current = nil

	discarded := 0
	if e.flusher != nil {
		discarded = e.flusher.Pending()
		e.flusher = nil
	}
	if e.sessionID != "" {
		if err := e.repo.AbandonSessionRecord(ctx, e.sessionID); err != nil {
			e.log.Warn("abandon session record failed", "error", err)
		}
	}
	e.log.Info("session abandoned", "from", from, "discarded", discarded)
	return nil
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Snapshot returns a copy of the engine's display state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Phase:          e.phase,
		Type:           e.typ,
		SessionID:      e.sessionID,
		StudentID:      e.student.StudentID,
		Current:        e.problemCopy(),
		Answered:       e.attempts.len(),
		Correct:        e.attempts.correct(),
		IncorrectFacts: append([]fact.Fact(nil), e.missed...),
	}
	if e.flusher != nil {
		s.Pending = e.flusher.Pending()
	}
	if e.grid != nil {
		s.Guardrail = e.grid.Guardrail
	}
	return s
}

func (e *Engine) problemLocked(total int) *Problem {
	f := e.queue[e.index]
	return &Problem{Fact: f, Index: e.index, Total: total, Band: f.Band()}
}

func (e *Engine) problemCopy() *Problem {
	if e.current == nil {
		return nil
	}
	p := *e.current
	return &p
}

func (e *Engine) phaseLabel() string {
	if e.summary != nil {
		return e.phase.String() + " (already completed)"
	}
	return e.phase.String()
}

// persistence classifies a repository failure, keeping kinds the store
// already assigned.
func persistence(op string, err error) error {
	if fault.KindOf(err) != "" {
		return err
	}
	return fault.Persistence(op, err)
}
