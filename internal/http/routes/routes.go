package routes

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/briangreenhill/lifelog/internal/config"
	"github.com/briangreenhill/lifelog/internal/fitness"
	"github.com/briangreenhill/lifelog/internal/jobs"
	"github.com/briangreenhill/lifelog/internal/spotify"
)

type Server struct {
	Router      *chi.Mux
	Spotify     *spotify.Service
	Creds       *spotify.Credentials
	Fitness     *fitness.Service
	Queue       *asynq.Client
	SpotifyConf *oauth2.Config
	StateSecret string // for signing the oauth2 state param
}

type ServerOptions struct {
	Spotify *spotify.Service
	Creds   *spotify.Credentials
	Fitness *fitness.Service
	Queue   *asynq.Client
	Cfg     config.Config
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{
		Router:      r,
		Spotify:     opts.Spotify,
		Creds:       opts.Creds,
		Fitness:     opts.Fitness,
		Queue:       opts.Queue,
		StateSecret: opts.Cfg.StateSecret,
	}
	s.SpotifyConf = &oauth2.Config{
		ClientID:     opts.Cfg.Spotify.ClientID,
		ClientSecret: opts.Cfg.Spotify.ClientSecret,
		RedirectURL:  opts.Cfg.BaseURL + "/oauth/spotify/callback",
		Scopes: []string{
			"user-top-read",
			"user-read-currently-playing",
			"user-read-recently-played",
		},
		Endpoint: endpoints.Spotify,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/spotify/top-artists", s.handleTopArtists)
		ar.Get("/spotify/top-tracks", s.handleTopTracks)
		ar.Get("/spotify/recently-played", s.handleRecentlyPlayed)
		ar.Get("/spotify/now-playing", s.handleNowPlaying)
		ar.Get("/fitness/workouts", s.handleListWorkouts)
		ar.Post("/fitness/workouts", s.handleIngestWorkouts)
	})

	r.Get("/oauth/spotify/start", s.handleSpotifyStart)
	r.Get("/oauth/spotify/callback", s.handleSpotifyCallback)

	return s
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write response failed")
	}
}

func (s *Server) handleTopArtists(w http.ResponseWriter, r *http.Request) {
	body, err := s.Spotify.TopArtists(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("top artists failed")
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, r, body)
}

func (s *Server) handleTopTracks(w http.ResponseWriter, r *http.Request) {
	body, err := s.Spotify.TopTracks(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("top tracks failed")
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, r, body)
}

func (s *Server) handleRecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	body, err := s.Spotify.RecentlyPlayed(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("recently played failed")
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, r, body)
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	np, err := s.Spotify.NowPlaying(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("now playing failed")
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, r, np)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.Fitness.Read(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list workouts failed")
		http.Error(w, "could not load workouts", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, r, workouts)
}

// handleIngestWorkouts queues the raw batch for the worker. Each record
// is persisted independently there, so a slow or flaky database never
// blocks the export app's upload.
func (s *Server) handleIngestWorkouts(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	// json.RawMessage refuses to marshal invalid JSON; reject it here
	// instead of queueing a task the worker can never decode.
	if !json.Valid(raw) {
		http.Error(w, "request body must be JSON", http.StatusBadRequest)
		return
	}

	payload, err := json.Marshal(jobs.IngestWorkoutsPayload{Raw: raw})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("marshal ingest payload failed")
		http.Error(w, "could not queue batch", http.StatusInternalServerError)
		return
	}
	task := asynq.NewTask(jobs.TaskIngestWorkouts, payload)

	info, err := s.Queue.Enqueue(task,
		asynq.Queue("ingest"),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("enqueue ingest failed")
		http.Error(w, "could not queue batch", http.StatusInternalServerError)
		return
	}

	hlog.FromRequest(r).Info().Str("task_id", info.ID).Msg("workout batch queued")
	w.WriteHeader(http.StatusAccepted)
	s.writeJSON(w, r, map[string]string{"status": "queued", "task_id": info.ID})
}

func (s *Server) handleSpotifyStart(w http.ResponseWriter, r *http.Request) {
	state := s.newState(time.Now().Add(stateTTL))
	http.Redirect(w, r, s.SpotifyConf.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSpotifyCallback(w http.ResponseWriter, r *http.Request) {
	if !s.checkState(r.URL.Query().Get("state")) {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	tok, err := s.SpotifyConf.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("spotify token exchange failed")
		http.Error(w, "could not exchange token", http.StatusBadGateway)
		return
	}

	if tok.RefreshToken != "" {
		s.Creds.SetRefreshToken(tok.RefreshToken)
		hlog.FromRequest(r).Info().Msg("spotify refresh token updated")
	}

	s.writeJSON(w, r, map[string]string{"status": "connected"})
}

// stateTTL bounds how long a connect attempt can sit between the
// redirect and the callback.
const stateTTL = 30 * time.Minute

// newState mints an HMAC-signed state parameter carrying its expiry.
// There is only one subject (the owner's Spotify grant), so the expiry
// is the whole payload.
func (s *Server) newState(exp time.Time) string {
	msg := strconv.FormatInt(exp.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(s.StateSecret))
	mac.Write([]byte(msg))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(msg)) + "." + sig
}

// checkState reports whether state came from newState and has not
// expired.
func (s *Server) checkState(state string) bool {
	parts := strings.SplitN(state, ".", 2)
	if len(parts) != 2 {
		return false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.StateSecret))
	mac.Write(payload)
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return false
	}

	expUnix, err := strconv.ParseInt(string(payload), 10, 64)
	if err != nil {
		return false
	}
	return time.Now().Before(time.Unix(expUnix, 0))
}
