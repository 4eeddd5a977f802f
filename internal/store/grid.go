package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/grid"
)

const gridsTable = "grids"

// FetchGrid returns the student's grid, creating an empty one on first use.
// Concurrent calls for the same student share one database round trip; each
// caller gets its own copy.
func (s *Store) FetchGrid(ctx context.Context, studentID string) (*grid.Grid, error) {
	if err := checkStudent("fetch grid", studentID); err != nil {
		return nil, err
	}
	v, err, _ := s.fetches.Do(studentID, func() (any, error) {
		g, err := s.loadGrid(ctx, s.db, studentID)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		s.writeMu.Lock()
		defer s.writeMu.Unlock()
		if err := s.ensureGrid(ctx, s.db, studentID); err != nil {
			return nil, err
		}
		return s.loadGrid(ctx, s.db, studentID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*grid.Grid).Clone(), nil
}

// PersistGridDeltas applies deltas to the stored grid in one transaction and
// adds len(deltas) to total attempts and the number of correct deltas to
// total correct. Either every delta is stored or none is.
func (s *Store) PersistGridDeltas(ctx context.Context, studentID string, deltas []grid.Cell) error {
	if err := checkStudent("persist grid deltas", studentID); err != nil {
		return err
	}
	if len(deltas) == 0 {
		return nil
	}
	correct := 0
	for _, d := range deltas {
		if !d.Fact().Valid() {
			return fault.Validation("persist grid deltas", "fact %v out of range", d.Fact())
		}
		if d.LastAttemptCorrect {
			correct++
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		g, err := s.loadOrCreate(ctx, tx, studentID)
		if err != nil {
			return err
		}
		for _, d := range deltas {
			if _, err := g.Apply(d); err != nil {
				return fault.Validation("persist grid deltas", "%v", err)
			}
		}
		blob, err := grid.EncodeCells(g)
		if err != nil {
			return err
		}
		query, args := sqlb.Update(gridsTable).
			Set("cells", string(blob)).
			Add("total_attempts", len(deltas)).
			Add("total_correct", correct).
			Set("updated_at", s.nowMillis()).
			Where(entsql.EQ("student_id", studentID)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update grid: %w", err)
		}
		return nil
	})
}

// SetGuardrail stores a new guardrail for the student.
func (s *Store) SetGuardrail(ctx context.Context, studentID string, g grid.Guardrail) error {
	if err := checkStudent("set guardrail", studentID); err != nil {
		return err
	}
	if !g.Valid() {
		return fault.Validation("set guardrail", "unknown guardrail %q", g)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureGrid(ctx, tx, studentID); err != nil {
			return err
		}
		query, args := sqlb.Update(gridsTable).
			Set("guardrail", string(g)).
			Set("updated_at", s.nowMillis()).
			Where(entsql.EQ("student_id", studentID)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update guardrail: %w", err)
		}
		return nil
	})
}

// ResetLocks clears every lock on the student's grid. Mastery timestamps and
// counters are kept.
func (s *Store) ResetLocks(ctx context.Context, studentID string) error {
	if err := checkStudent("reset locks", studentID); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		g, err := s.loadOrCreate(ctx, tx, studentID)
		if err != nil {
			return err
		}
		g.Unlock()
		return s.writeCells(ctx, tx, g)
	})
}

// ResetGrid replaces the student's grid with an empty one at the default
// guardrail. Session history is kept.
func (s *Store) ResetGrid(ctx context.Context, studentID string) error {
	if err := checkStudent("reset grid", studentID); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureGrid(ctx, tx, studentID); err != nil {
			return err
		}
		blob, err := grid.EncodeCells(grid.New(studentID))
		if err != nil {
			return err
		}
		query, args := sqlb.Update(gridsTable).
			Set("cells", string(blob)).
			Set("guardrail", string(grid.DefaultGuardrail)).
			Set("total_correct", 0).
			Set("total_attempts", 0).
			Set("updated_at", s.nowMillis()).
			Where(entsql.EQ("student_id", studentID)).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("reset grid: %w", err)
		}
		return nil
	})
}

func (s *Store) loadGrid(ctx context.Context, q querier, studentID string) (*grid.Grid, error) {
	query, args := sqlb.Select("guardrail", "cells", "total_correct", "total_attempts").
		From(entsql.Table(gridsTable)).
		Where(entsql.EQ("student_id", studentID)).
		Query()

	var (
		guardrail string
		blob      []byte
		g         = grid.New(studentID)
	)
	if err := q.QueryRowContext(ctx, query, args...).Scan(&guardrail, &blob, &g.TotalCorrect, &g.TotalAttempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("query grid: %w", err)
	}
	cells, err := grid.DecodeCells(blob)
	if err != nil {
		return nil, fmt.Errorf("decode grid for %s: %w", studentID, err)
	}
	g.SetCells(cells)
	if gr := grid.Guardrail(guardrail); gr.Valid() {
		g.Guardrail = gr
	}
	return g, nil
}

// ensureGrid inserts an empty grid row unless one exists.
func (s *Store) ensureGrid(ctx context.Context, q querier, studentID string) error {
	blob, err := grid.EncodeCells(grid.New(studentID))
	if err != nil {
		return err
	}
	now := s.nowMillis()
	query, args := sqlb.Insert(gridsTable).
		Columns("student_id", "guardrail", "cells", "total_correct", "total_attempts", "created_at", "updated_at").
		Values(studentID, string(grid.DefaultGuardrail), string(blob), 0, 0, now, now).
		OnConflict(entsql.ConflictColumns("student_id"), entsql.DoNothing()).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create grid: %w", err)
	}
	return nil
}

func (s *Store) loadOrCreate(ctx context.Context, q querier, studentID string) (*grid.Grid, error) {
	if err := s.ensureGrid(ctx, q, studentID); err != nil {
		return nil, err
	}
	return s.loadGrid(ctx, q, studentID)
}

func (s *Store) writeCells(ctx context.Context, q querier, g *grid.Grid) error {
	blob, err := grid.EncodeCells(g)
	if err != nil {
		return err
	}
	query, args := sqlb.Update(gridsTable).
		Set("cells", string(blob)).
		Set("updated_at", s.nowMillis()).
		Where(entsql.EQ("student_id", g.StudentID)).
		Query()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write cells: %w", err)
	}
	return nil
}

func checkStudent(op, studentID string) error {
	if strings.TrimSpace(studentID) == "" {
		return fault.Validation(op, "student id is required")
	}
	return nil
}
