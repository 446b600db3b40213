// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/lifelog/internal/config"
	"github.com/briangreenhill/lifelog/internal/fitness"
	"github.com/briangreenhill/lifelog/internal/http/routes"
	"github.com/briangreenhill/lifelog/internal/spotify"
	"github.com/briangreenhill/lifelog/internal/store"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if !cfg.HasSpotify() {
		logger.Warn().Msg("spotify credentials not configured; music endpoints will fail")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()

	creds := spotify.NewCredentials(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RefreshToken)
	spotifySvc := spotify.NewService(spotify.NewClient(creds), logger)
	fitnessSvc := fitness.NewService(store.NewPostgres(pool), logger)

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if closeErr := queue.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("close queue client")
		}
	}()

	s := routes.New(routes.ServerOptions{
		Spotify: spotifySvc,
		Creds:   creds,
		Fitness: fitnessSvc,
		Queue:   queue,
		Cfg:     cfg,
	})

	h := hlog.NewHandler(logger)(s.Router)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	})(h)

	logger.Info().Str("port", cfg.Port).Msg("starting api")
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: h}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
