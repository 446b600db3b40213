// Package store persists workout records in Postgres.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/briangreenhill/lifelog/internal/fitness"
)

// Postgres implements fitness.Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ fitness.Store = (*Postgres)(nil)

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const insertWorkoutSQL = `
INSERT INTO workouts (id, name, intensity, max_heart_rate, avg_heart_rate, total_energy, active_energy, started_at, ended_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// InsertWorkout appends a single workout row. Records are append-only;
// there is no update or delete path.
func (p *Postgres) InsertWorkout(ctx context.Context, w fitness.Workout) error {
	_, err := p.pool.Exec(ctx, insertWorkoutSQL,
		uuid.New(), w.Name, w.Intensity,
		w.MaxHeartRate, w.AvgHeartRate, w.TotalEnergy, w.ActiveEnergy,
		w.Start, w.End,
	)
	if err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}
	return nil
}

const workoutsSinceSQL = `
SELECT name, intensity, max_heart_rate, avg_heart_rate, total_energy, active_energy, started_at, ended_at
FROM workouts
WHERE started_at >= $1
ORDER BY started_at ASC`

// WorkoutsSince returns all workouts started at or after since, oldest
// first.
func (p *Postgres) WorkoutsSince(ctx context.Context, since time.Time) ([]fitness.Workout, error) {
	rows, err := p.pool.Query(ctx, workoutsSinceSQL, since)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	out := []fitness.Workout{}
	for rows.Next() {
		var w fitness.Workout
		if err := rows.Scan(
			&w.Name, &w.Intensity,
			&w.MaxHeartRate, &w.AvgHeartRate, &w.TotalEnergy, &w.ActiveEnergy,
			&w.Start, &w.End,
		); err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
