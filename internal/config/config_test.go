package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/media"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewport.ZoomStep != 25 || cfg.Viewport.MaxZoom != 300 {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
	if cfg.Media.Backend != media.BackendLocal {
		t.Errorf("media backend = %q", cfg.Media.Backend)
	}
	if cfg.Identity.Author() != nil {
		t.Error("default identity should be unset")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	cfg := Default()
	cfg.Identity = IdentityConfig{Name: "Ana", Contact: "ana@example.com"}
	cfg.Artwork = ArtworkConfig{ID: "poster", Version: 3, Width: 80, Height: 30}
	cfg.Threads.TTL = 5 * time.Minute
	cfg.Media = media.Config{Backend: media.BackendS3, S3: media.S3Config{
		Bucket:          "viu-audio",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		PresignExpiry:   time.Hour,
	}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a := got.Identity.Author(); a == nil || a.DisplayName != "Ana" {
		t.Errorf("identity = %+v", got.Identity)
	}
	if got.Artwork.Ref().ArtworkID != "poster" || got.Artwork.Version != 3 {
		t.Errorf("artwork = %+v", got.Artwork)
	}
	if got.Threads.TTL != 5*time.Minute {
		t.Errorf("threads.ttl = %v", got.Threads.TTL)
	}
	if got.Media.S3.PresignExpiry != time.Hour || got.Media.S3.Bucket != "viu-audio" {
		t.Errorf("s3 = %+v", got.Media.S3)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("VIU_READ_ONLY", "true")
	t.Setenv("VIU_LOG_LEVEL", "debug")
	t.Setenv("VIU_ARTWORK_VERSION", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.ReadOnly {
		t.Error("read_only not overridden")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}
	if cfg.Artwork.Version != 7 {
		t.Errorf("artwork.version = %d", cfg.Artwork.Version)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("artwork: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.IsCategory(err, errors.CategoryConfiguration) {
		t.Errorf("err = %v, want configuration", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no artwork", func(c *Config) { c.Artwork.ID = "" }, "artwork.id is required"},
		{"zero version", func(c *Config) { c.Artwork.Version = 0 }, "artwork.version"},
		{"zero size", func(c *Config) { c.Artwork.Width = 0 }, "artwork.width"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad zoom", func(c *Config) { c.Viewport.ZoomStep = 30 }, "zoom"},
		{"bad media", func(c *Config) { c.Media.Backend = "ftp" }, "unknown media backend"},
		{"media ignored without audio", func(c *Config) {
			c.Audio.Enabled = false
			c.Media.Backend = "ftp"
		}, ""},
		{"transcribe without socket", func(c *Config) {
			c.Transcribe.Enabled = true
			c.Transcribe.Socket = ""
		}, "transcribe.socket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
