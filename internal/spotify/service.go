package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/lifelog/internal/cache"
	"github.com/briangreenhill/lifelog/internal/clock"
)

const DefaultBaseURL = "https://api.spotify.com"

const (
	topArtistsPath     = "/v1/me/top/artists?time_range=short_term&limit=5"
	topTracksPath      = "/v1/me/top/tracks?time_range=short_term&limit=5"
	recentlyPlayedPath = "/v1/me/player/recently-played?limit=5"
	nowPlayingPath     = "/v1/me/player/currently-playing?market=GB&additional_types=track%2Cepisode"

	nowPlayingKey = "now-playing"
	shortTTL      = 30 * time.Second
)

// Service serves Spotify data through in-memory response caches so each
// endpoint goes upstream at most once per key per TTL window.
type Service struct {
	client  *Client
	baseURL string
	raw     *cache.Cache[json.RawMessage]
	playing *cache.Cache[NowPlaying]
	log     zerolog.Logger
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBaseURL overrides the API base URL, for tests.
func WithBaseURL(raw string) ServiceOption {
	return func(s *Service) { s.baseURL = raw }
}

// NewService creates a Service with cold caches.
func NewService(client *Client, log zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		client:  client,
		baseURL: DefaultBaseURL,
		raw:     cache.New[json.RawMessage](),
		playing: cache.New[NowPlaying](),
		log:     log,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TopArtists returns the short-term top artists, cached for the rest of
// the calendar day.
func (s *Service) TopArtists(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, topArtistsPath, clock.UntilEndOfDay(s.now()))
}

// TopTracks returns the short-term top tracks, cached for the rest of
// the calendar day.
func (s *Service) TopTracks(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, topTracksPath, clock.UntilEndOfDay(s.now()))
}

// RecentlyPlayed returns the listening history, cached briefly since it
// moves faster than the daily endpoints.
func (s *Service) RecentlyPlayed(ctx context.Context) (json.RawMessage, error) {
	return s.fetch(ctx, recentlyPlayedPath, shortTTL)
}

// fetch serves url from the date-scoped cache, going upstream only on a
// miss. The key includes today's date, so entries roll over at midnight
// without explicit invalidation.
func (s *Service) fetch(ctx context.Context, path string, ttl time.Duration) (json.RawMessage, error) {
	url := s.baseURL + path
	key := cache.Key(clock.Today(s.now()), url)
	if s.raw.Has(key) {
		return s.raw.Get(key), nil
	}

	s.log.Debug().Str("path", path).Msg("cache miss")
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	s.raw.Set(key, body, ttl)
	return body, nil
}

// NowPlaying returns the currently playing track or episode under a
// fixed short-lived key, bounding the upstream call rate regardless of
// caller volume.
func (s *Service) NowPlaying(ctx context.Context) (NowPlaying, error) {
	if s.playing.Has(nowPlayingKey) {
		return s.playing.Get(nowPlayingKey), nil
	}

	body, err := s.client.Get(ctx, s.baseURL+nowPlayingPath)
	if err != nil {
		return NowPlaying{}, err
	}

	var raw playerResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return NowPlaying{}, fmt.Errorf("decode player response: %w", err)
	}

	np := projectNowPlaying(raw)
	s.playing.Set(nowPlayingKey, np, shortTTL)
	return np, nil
}

// projectNowPlaying builds the snapshot for the payload's type. An
// episode carries the show name and episode art; anything else is
// treated as a track with artists, album art and popularity. A payload
// with no item (nothing playing) projects to the empty snapshot.
func projectNowPlaying(raw playerResponse) NowPlaying {
	if raw.Item == nil {
		return NowPlaying{}
	}

	np := NowPlaying{
		URL:       raw.Item.ExternalURLs.Spotify,
		Name:      raw.Item.Name,
		IsPlaying: raw.IsPlaying,
	}

	if raw.CurrentlyPlayingType == "episode" {
		np.Type = "episode"
		np.Show = raw.Item.Show.Name
		if len(raw.Item.Images) > 0 {
			img := raw.Item.Images[0]
			np.Image = &img
		}
		return np
	}

	np.Type = "track"
	for _, a := range raw.Item.Artists {
		np.Artists = append(np.Artists, a.Name)
	}
	if len(raw.Item.Album.Images) > 0 {
		img := raw.Item.Album.Images[0]
		np.Image = &img
	}
	pop := raw.Item.Popularity
	np.Popularity = &pop
	return np
}
