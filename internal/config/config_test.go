package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got.Port != "8080" {
		t.Errorf("Port = %s, want 8080", got.Port)
	}
	if got.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("RedisAddr = %s, want 127.0.0.1:6379", got.RedisAddr)
	}
	if got.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %s, want http://localhost:8080", got.BaseURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SPOTIFY_CLIENT_ID", "cid")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "csecret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "rtok")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got.Port != "9999" {
		t.Errorf("Port = %s, want 9999", got.Port)
	}
	if got.Spotify.ClientID != "cid" {
		t.Errorf("Spotify.ClientID = %s, want cid", got.Spotify.ClientID)
	}
	if got.Spotify.RefreshToken != "rtok" {
		t.Errorf("Spotify.RefreshToken = %s, want rtok", got.Spotify.RefreshToken)
	}
	if !got.HasSpotify() {
		t.Error("HasSpotify() should be true with id and secret set")
	}
}

func TestHasSpotify(t *testing.T) {
	cfg := Config{}
	if cfg.HasSpotify() {
		t.Error("HasSpotify() should be false without credentials")
	}

	cfg.Spotify.ClientID = "cid"
	if cfg.HasSpotify() {
		t.Error("HasSpotify() should be false without a secret")
	}

	cfg.Spotify.ClientSecret = "csecret"
	if !cfg.HasSpotify() {
		t.Error("HasSpotify() should be true with id and secret")
	}
}
