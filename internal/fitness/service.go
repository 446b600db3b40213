// Package fitness ingests workout batches and serves the rolling
// one-month window of persisted records.
package fitness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/lifelog/internal/cache"
	"github.com/briangreenhill/lifelog/internal/clock"
)

// Store is the persistence boundary for workout records.
type Store interface {
	InsertWorkout(ctx context.Context, w Workout) error
	WorkoutsSince(ctx context.Context, since time.Time) ([]Workout, error)
}

// Service owns the workout read cache and the write pipeline.
type Service struct {
	store Store
	cache *cache.Cache[[]Workout]
	log   zerolog.Logger
	now   func() time.Time
}

// NewService creates a Service with a cold cache.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		cache: cache.New[[]Workout](),
		log:   log,
		now:   time.Now,
	}
}

// Write normalizes the batch, drops intra-batch duplicates and persists
// each surviving record on its own. A failed insert is logged and does
// not hold up the rest of the batch; there is no transaction spanning
// the batch and no rollback. Dedup only looks inside the batch, never
// at rows already persisted.
func (s *Service) Write(ctx context.Context, payload []byte) error {
	var batch Batch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return fmt.Errorf("decode workout batch: %w", err)
	}

	for _, w := range Deduplicate(batch.Data.Workouts) {
		if err := s.store.InsertWorkout(ctx, w); err != nil {
			s.log.Error().Err(err).
				Str("workout", w.Name).
				Time("start", w.Start).
				Msg("insert workout failed")
		}
	}
	return nil
}

// Deduplicate removes workouts sharing the exact same start and end
// instants. When several tracking apps report the same session they
// agree on the timestamps, so the pair identifies the workout; the
// first-encountered record wins.
func Deduplicate(workouts []Workout) []Workout {
	type span struct{ start, end int64 }
	seen := make(map[span]bool, len(workouts))
	out := make([]Workout, 0, len(workouts))
	for _, w := range workouts {
		k := span{w.Start.UnixNano(), w.End.UnixNano()}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, w)
	}
	return out
}

// Read returns all workouts started within the last month, oldest
// first, cached under a date-scoped key until the end of the day.
func (s *Service) Read(ctx context.Context) ([]Workout, error) {
	key := cache.Key(clock.Today(s.now()))
	if s.cache.Has(key) {
		return s.cache.Get(key), nil
	}

	workouts, err := s.store.WorkoutsSince(ctx, clock.OneMonthBefore(s.now()))
	if err != nil {
		return nil, fmt.Errorf("load workouts: %w", err)
	}
	if workouts == nil {
		// an empty window serializes as [], not null
		workouts = []Workout{}
	}

	s.cache.Set(key, workouts, clock.UntilEndOfDay(s.now()))
	return workouts, nil
}
