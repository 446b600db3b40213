package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/lifelog/internal/config"
	"github.com/briangreenhill/lifelog/internal/fitness"
	"github.com/briangreenhill/lifelog/internal/jobs"
	"github.com/briangreenhill/lifelog/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	svc := fitness.NewService(store.NewPostgres(pool), logger)

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			"ingest":  10,
			"default": 5,
		},
	})
	mux := asynq.NewServeMux()

	mux.HandleFunc(jobs.TaskIngestWorkouts, func(ctx context.Context, t *asynq.Task) error {
		var p jobs.IngestWorkoutsPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			logger.Error().Err(err).Msg("bad ingest payload")
			return err
		}

		start := time.Now()
		if err := svc.Write(ctx, p.Raw); err != nil {
			logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("ingest failed")
			return err
		}
		logger.Info().Dur("duration", time.Since(start)).Msg("ingest done")
		return nil
	})

	logger.Info().Msg("worker running")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}
