package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/lifelog/internal/cache"
)

// newClockedCache builds a cache whose clock follows *now.
func newClockedCache[T any](now *time.Time) *cache.Cache[T] {
	return cache.New[T](cache.WithClock[T](func() time.Time { return *now }))
}

const trackPayload = `{
	"is_playing": true,
	"currently_playing_type": "track",
	"item": {
		"name": "Karma Police",
		"popularity": 78,
		"external_urls": {"spotify": "https://open.spotify.com/track/abc"},
		"artists": [{"name": "Radiohead"}],
		"album": {"images": [{"url": "https://i.scdn.co/image/cover", "height": 640, "width": 640}]}
	}
}`

const episodePayload = `{
	"is_playing": true,
	"currently_playing_type": "episode",
	"item": {
		"name": "Episode 42",
		"external_urls": {"spotify": "https://open.spotify.com/episode/xyz"},
		"images": [{"url": "https://i.scdn.co/image/show", "height": 640, "width": 640}],
		"show": {"name": "Some Podcast"}
	}
}`

// newTestService wires a Service against a fake upstream handler and
// returns it with a settable clock.
func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *time.Time) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	creds, _ := newTestCreds(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc := NewService(NewClient(creds), zerolog.Nop(), WithBaseURL(srv.URL))
	svc.now = func() time.Time { return now }
	svc.raw = newClockedCache[json.RawMessage](&now)
	svc.playing = newClockedCache[NowPlaying](&now)
	return svc, &now
}

func TestProjectNowPlayingTrack(t *testing.T) {
	var raw playerResponse
	require.NoError(t, json.Unmarshal([]byte(trackPayload), &raw))

	np := projectNowPlaying(raw)

	assert.Equal(t, "track", np.Type)
	assert.Equal(t, "Karma Police", np.Name)
	assert.Equal(t, "https://open.spotify.com/track/abc", np.URL)
	assert.True(t, np.IsPlaying)
	assert.Equal(t, []string{"Radiohead"}, np.Artists)
	require.NotNil(t, np.Popularity)
	assert.Equal(t, 78, *np.Popularity)
	require.NotNil(t, np.Image)
	assert.Equal(t, "https://i.scdn.co/image/cover", np.Image.URL)
	assert.Empty(t, np.Show)
}

func TestProjectNowPlayingEpisode(t *testing.T) {
	var raw playerResponse
	require.NoError(t, json.Unmarshal([]byte(episodePayload), &raw))

	np := projectNowPlaying(raw)

	assert.Equal(t, "episode", np.Type)
	assert.Equal(t, "Some Podcast", np.Show)
	require.NotNil(t, np.Image)
	assert.Equal(t, "https://i.scdn.co/image/show", np.Image.URL)
	assert.Nil(t, np.Artists)
	assert.Nil(t, np.Popularity)
}

func TestProjectNowPlayingEmpty(t *testing.T) {
	np := projectNowPlaying(playerResponse{})
	assert.Equal(t, NowPlaying{}, np)
}

func TestFetchServesFromCacheWithinDay(t *testing.T) {
	var calls atomic.Int32
	svc, now := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"items":["artist"]}`)
	})

	first, err := svc.TopArtists(context.Background())
	require.NoError(t, err)

	second, err := svc.TopArtists(context.Background())
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, int32(1), calls.Load(), "second call must be served from cache")

	// past midnight the date-scoped key no longer matches
	*now = now.Add(13 * time.Hour)
	_, err = svc.TopArtists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNowPlayingCachedForShortWindow(t *testing.T) {
	var calls atomic.Int32
	svc, now := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, trackPayload)
	})

	_, err := svc.NowPlaying(context.Background())
	require.NoError(t, err)
	_, err = svc.NowPlaying(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	*now = now.Add(31 * time.Second)
	_, err = svc.NowPlaying(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNowPlayingNothingPlaying(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	np, err := svc.NowPlaying(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NowPlaying{}, np)

	// the empty snapshot is cached too
	assert.True(t, svc.playing.Has(nowPlayingKey))
}
