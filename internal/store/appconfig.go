package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/mastery"
)

const (
	appConfigTable = "app_config"
	timeBucketsKey = "time_buckets"
)

// TimeBuckets returns the stored response time thresholds, or the store's
// defaults when none have been saved.
func (s *Store) TimeBuckets(ctx context.Context) (mastery.Thresholds, error) {
	query, args := sqlb.Select("value").
		From(entsql.Table(appConfigTable)).
		Where(entsql.EQ("key", timeBucketsKey)).
		Query()
	var raw string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.buckets, nil
		}
		return mastery.Thresholds{}, fmt.Errorf("query time buckets: %w", err)
	}
	var t mastery.Thresholds
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return mastery.Thresholds{}, fmt.Errorf("decode time buckets: %w", err)
	}
	if err := t.Validate(); err != nil {
		return mastery.Thresholds{}, fmt.Errorf("stored time buckets: %w", err)
	}
	return t, nil
}

// SetTimeBuckets saves the response time thresholds.
func (s *Store) SetTimeBuckets(ctx context.Context, t mastery.Thresholds) error {
	if err := t.Validate(); err != nil {
		return fault.Validation("set time buckets", "%v", err)
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode time buckets: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query, args := sqlb.Insert(appConfigTable).
		Columns("key", "value", "updated_at").
		Values(timeBucketsKey, string(raw), s.nowMillis()).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save time buckets: %w", err)
	}
	return nil
}
