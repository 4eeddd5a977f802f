package session

import (
	"context"

	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/store"
)

// Repo is the persistence the engine needs. *store.Store implements it.
type Repo interface {
	FetchGrid(ctx context.Context, studentID string) (*grid.Grid, error)
	PersistGridDeltas(ctx context.Context, studentID string, deltas []grid.Cell) error
	SetGuardrail(ctx context.Context, studentID string, g grid.Guardrail) error

	CreateSessionRecord(ctx context.Context, studentID, sessionType string, totalItems int) (string, error)
	RecordAttempt(ctx context.Context, sessionID string, a store.AttemptData) error
	CompleteSessionRecord(ctx context.Context, sessionID string, s store.SummaryData) error
	AbandonSessionRecord(ctx context.Context, sessionID string) error
}

var _ Repo = (*store.Store)(nil)
