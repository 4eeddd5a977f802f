package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/grid"
)

const (
	sessionsTable = "sessions"
	attemptsTable = "attempts"
)

var sessionColumns = []string{
	"id", "sequence", "student_id", "session_type", "status", "total_items", "started_at", "ended_at",
	"correct_answers", "accuracy", "average_time_seconds", "fast_count", "medium_count", "slow_count",
	"duration_ms", "guardrail",
}

// CreateSessionRecord opens an in-progress session record and returns its ID.
func (s *Store) CreateSessionRecord(ctx context.Context, studentID, sessionType string, totalItems int) (string, error) {
	if err := checkStudent("create session", studentID); err != nil {
		return "", err
	}
	if sessionType != SessionPlacement && sessionType != SessionPractice {
		return "", fault.Validation("create session", "unknown session type %q", sessionType)
	}

	id := uuid.NewString()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		seq, err := nextSequence(ctx, tx)
		if err != nil {
			return err
		}
		query, args := sqlb.Insert(sessionsTable).
			Columns("id", "sequence", "student_id", "session_type", "status", "total_items", "started_at").
			Values(id, seq, studentID, sessionType, string(StatusInProgress), totalItems, s.nowMillis()).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordAttempt appends an attempt to an in-progress session. Attempt numbers
// are unique per session; a repeated number is a validation error.
func (s *Store) RecordAttempt(ctx context.Context, sessionID string, a AttemptData) error {
	if a.AttemptNumber <= 0 {
		return fault.Validation("record attempt", "attempt number must be positive, got %d", a.AttemptNumber)
	}
	if !a.Fact.Valid() {
		return fault.Validation("record attempt", "fact %v out of range", a.Fact)
	}
	at := a.At
	if at.IsZero() {
		at = s.now()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireStatus(ctx, tx, "record attempt", sessionID, StatusInProgress); err != nil {
			return err
		}
		seq, err := nextSequence(ctx, tx)
		if err != nil {
			return err
		}
		query, args := sqlb.Insert(attemptsTable).
			Columns("session_id", "attempt_number", "sequence", "multiplicand", "multiplier",
				"user_answer", "correct_answer", "is_correct", "time_spent_seconds", "time_class", "created_at").
			Values(sessionID, a.AttemptNumber, seq, a.Fact.Multiplicand, a.Fact.Multiplier,
				a.UserAnswer, a.CorrectAnswer, a.Correct, a.TimeSpentSeconds, string(a.TimeClass), toMillis(at)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isConstraintError(err) {
				return fault.Validation("record attempt", "attempt %d already recorded for session %s", a.AttemptNumber, sessionID)
			}
			return fmt.Errorf("insert attempt: %w", err)
		}
		return nil
	})
}

// CompleteSessionRecord closes an in-progress session with its summary.
// total_items is rewritten to the number of problems actually answered.
func (s *Store) CompleteSessionRecord(ctx context.Context, sessionID string, sum SummaryData) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireStatus(ctx, tx, "complete session", sessionID, StatusInProgress); err != nil {
			return err
		}
		query, args := sqlb.Update(sessionsTable).
			Set("status", string(StatusCompleted)).
			Set("ended_at", s.nowMillis()).
			Set("total_items", sum.TotalProblems).
			Set("correct_answers", sum.CorrectAnswers).
			Set("accuracy", sum.Accuracy).
			Set("average_time_seconds", sum.AverageTimeSeconds).
			Set("fast_count", sum.Fast).
			Set("medium_count", sum.Medium).
			Set("slow_count", sum.Slow).
			Set("duration_ms", sum.Duration.Milliseconds()).
			Set("guardrail", string(sum.Guardrail)).
			Where(entsql.EQ("id", sessionID)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		return nil
	})
}

// AbandonSessionRecord closes an in-progress session without a summary.
func (s *Store) AbandonSessionRecord(ctx context.Context, sessionID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireStatus(ctx, tx, "abandon session", sessionID, StatusInProgress); err != nil {
			return err
		}
		query, args := sqlb.Update(sessionsTable).
			Set("status", string(StatusAbandoned)).
			Set("ended_at", s.nowMillis()).
			Where(entsql.EQ("id", sessionID)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("abandon session: %w", err)
		}
		return nil
	})
}

// Session returns one session record.
func (s *Store) Session(ctx context.Context, sessionID string) (*SessionRecord, error) {
	query, args := sqlb.Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", sessionID)).
		Query()
	rec, err := scanSession(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fault.Validation("session", "session %s not found", sessionID)
	}
	return rec, err
}

// Sessions returns the student's most recent sessions, newest first. A
// non-positive limit returns all of them.
func (s *Store) Sessions(ctx context.Context, studentID string, limit int) ([]SessionRecord, error) {
	sel := sqlb.Select(sessionColumns...).
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Attempts returns a session's attempts in attempt-number order.
func (s *Store) Attempts(ctx context.Context, sessionID string) ([]AttemptData, error) {
	query, args := sqlb.Select("attempt_number", "multiplicand", "multiplier", "user_answer", "correct_answer",
		"is_correct", "time_spent_seconds", "time_class", "created_at").
		From(entsql.Table(attemptsTable)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("attempt_number").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptData
	for rows.Next() {
		var (
			a         AttemptData
			m, n      int
			timeClass string
			at        int64
		)
		if err := rows.Scan(&a.AttemptNumber, &m, &n, &a.UserAnswer, &a.CorrectAnswer,
			&a.Correct, &a.TimeSpentSeconds, &timeClass, &at); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Fact = fact.Fact{Multiplicand: m, Multiplier: n}
		a.TimeClass = grid.TimeClass(timeClass)
		a.At = fromMillis(at)
		out = append(out, a)
	}
	return out, rows.Err()
}

// JourneyState reports where the student is in the placement then practice
// flow.
func (s *Store) JourneyState(ctx context.Context, studentID string) (Journey, error) {
	if err := checkStudent("journey state", studentID); err != nil {
		return "", err
	}
	count := func(preds ...*entsql.Predicate) (int, error) {
		query, args := sqlb.Select(entsql.Count("*")).
			From(entsql.Table(sessionsTable)).
			Where(entsql.And(append([]*entsql.Predicate{entsql.EQ("student_id", studentID)}, preds...)...)).
			Query()
		var n int
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return 0, fmt.Errorf("count sessions: %w", err)
		}
		return n, nil
	}

	placed, err := count(entsql.EQ("session_type", SessionPlacement), entsql.EQ("status", string(StatusCompleted)))
	if err != nil {
		return "", err
	}
	if placed > 0 {
		practiced, err := count(entsql.EQ("session_type", SessionPractice))
		if err != nil {
			return "", err
		}
		if practiced > 0 {
			return JourneyPracticeReady, nil
		}
		return JourneyPlacementCompleted, nil
	}

	open, err := count(entsql.EQ("session_type", SessionPlacement), entsql.EQ("status", string(StatusInProgress)))
	if err != nil {
		return "", err
	}
	if open > 0 {
		return JourneyPlacementInProgress, nil
	}
	return JourneyNeedsPlacement, nil
}

func requireStatus(ctx context.Context, q querier, op, sessionID string, want SessionStatus) error {
	query, args := sqlb.Select("status").
		From(entsql.Table(sessionsTable)).
		Where(entsql.EQ("id", sessionID)).
		Query()
	var status string
	if err := q.QueryRowContext(ctx, query, args...).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fault.Validation(op, "session %s not found", sessionID)
		}
		return fmt.Errorf("query session status: %w", err)
	}
	if SessionStatus(status) != want {
		return fault.Validation(op, "session %s is %s", sessionID, status)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*SessionRecord, error) {
	var (
		rec                   SessionRecord
		status                string
		startedAt             int64
		endedAt, durationMS   sql.NullInt64
		correct, fast, medium sql.NullInt64
		slow                  sql.NullInt64
		accuracy, avgTime     sql.NullFloat64
		guardrail             sql.NullString
	)
	err := r.Scan(&rec.ID, &rec.Sequence, &rec.StudentID, &rec.Type, &status, &rec.TotalItems, &startedAt, &endedAt,
		&correct, &accuracy, &avgTime, &fast, &medium, &slow, &durationMS, &guardrail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	rec.Status = SessionStatus(status)
	rec.StartedAt = fromMillis(startedAt)
	if endedAt.Valid {
		t := fromMillis(endedAt.Int64)
		rec.EndedAt = &t
	}
	if rec.Status == StatusCompleted {
		rec.Summary = &SummaryData{
			TotalProblems:      rec.TotalItems,
			CorrectAnswers:     int(correct.Int64),
			Accuracy:           accuracy.Float64,
			AverageTimeSeconds: avgTime.Float64,
			Fast:               int(fast.Int64),
			Medium:             int(medium.Int64),
			Slow:               int(slow.Int64),
			Duration:           time.Duration(durationMS.Int64) * time.Millisecond,
			Guardrail:          grid.Guardrail(guardrail.String),
		}
	}
	return &rec, nil
}

func isConstraintError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "primary key")
}
