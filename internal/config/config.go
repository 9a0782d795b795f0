// Package config loads viu settings from a YAML file, VIU_ environment
// variables and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/media"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/viewport"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. VIU_LOG_LEVEL.
const EnvPrefix = "VIU"

// DefaultConfigDir returns the default config directory (~/.viu).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".viu"), nil
}

// DefaultConfigPath returns the default config file path (~/.viu/config.yml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// Config holds all viu settings.
type Config struct {
	Identity   IdentityConfig   `mapstructure:"identity" yaml:"identity"`
	Artwork    ArtworkConfig    `mapstructure:"artwork" yaml:"artwork"`
	ReadOnly   bool             `mapstructure:"read_only" yaml:"read_only"`
	Viewport   viewport.Config  `mapstructure:"viewport" yaml:"viewport"`
	Audio      AudioConfig      `mapstructure:"audio" yaml:"audio"`
	Media      media.Config     `mapstructure:"media" yaml:"media"`
	Transcribe TranscribeConfig `mapstructure:"transcribe" yaml:"transcribe"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Threads    ThreadsConfig    `mapstructure:"threads" yaml:"threads"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
}

// IdentityConfig is the commenter shown on new feedback. Leave empty to be
// prompted on first submit.
type IdentityConfig struct {
	Name    string `mapstructure:"name" yaml:"name,omitempty"`
	Contact string `mapstructure:"contact" yaml:"contact,omitempty"`
}

// Author returns the configured identity, or nil when none is set.
func (c IdentityConfig) Author() *feedback.Author {
	if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Contact) == "" {
		return nil
	}
	return &feedback.Author{DisplayName: strings.TrimSpace(c.Name), Contact: strings.TrimSpace(c.Contact)}
}

// ArtworkConfig selects the artwork version under review and its natural
// size in terminal cells.
type ArtworkConfig struct {
	ID      string `mapstructure:"id" yaml:"id"`
	Version int    `mapstructure:"version" yaml:"version"`
	Title   string `mapstructure:"title" yaml:"title,omitempty"`
	Width   int    `mapstructure:"width" yaml:"width"`
	Height  int    `mapstructure:"height" yaml:"height"`
}

// Ref returns the artwork reference.
func (c ArtworkConfig) Ref() feedback.ArtworkRef {
	return feedback.ArtworkRef{ArtworkID: c.ID, Version: c.Version}
}

// AudioConfig configures recording and upload retries.
type AudioConfig struct {
	Enabled           bool              `mapstructure:"enabled" yaml:"enabled"`
	Capture           audio.MalgoConfig `mapstructure:"capture" yaml:"capture"`
	MaxUploadAttempts int               `mapstructure:"max_upload_attempts" yaml:"max_upload_attempts"`
}

// TranscribeConfig configures the optional transcription service.
type TranscribeConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Socket  string        `mapstructure:"socket" yaml:"socket"`
	Locale  string        `mapstructure:"locale" yaml:"locale,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DatabaseConfig locates the feedback database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ThreadsConfig controls reply caching.
type ThreadsConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LogConfig controls the log file.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dir, err := DefaultConfigDir()
	if err != nil {
		dir = ".viu"
	}
	return &Config{
		Artwork:  ArtworkConfig{ID: "demo", Version: 1, Width: 60, Height: 20},
		Viewport: viewport.DefaultConfig(),
		Audio: AudioConfig{
			Enabled:           true,
			Capture:           audio.DefaultMalgoConfig(),
			MaxUploadAttempts: audio.DefaultMaxUploadAttempts,
		},
		Media: media.Config{
			Backend: media.BackendLocal,
			Local:   media.LocalConfig{Dir: filepath.Join(dir, "media")},
			S3:      media.S3Config{Region: "us-east-1", UseSSL: true, PresignExpiry: media.DefaultPresignExpiry},
		},
		Transcribe: TranscribeConfig{
			Socket:  filepath.Join(dir, "transcribe.sock"),
			Timeout: 2 * time.Minute,
		},
		Database: DatabaseConfig{Path: filepath.Join(dir, "viu.sqlite")},
		Log:      LogConfig{File: filepath.Join(dir, "viu.log"), Level: "info"},
	}
}

// setDefaults registers every key so environment overrides apply even when
// the file omits them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("identity.name", d.Identity.Name)
	v.SetDefault("identity.contact", d.Identity.Contact)
	v.SetDefault("artwork.id", d.Artwork.ID)
	v.SetDefault("artwork.version", d.Artwork.Version)
	v.SetDefault("artwork.title", d.Artwork.Title)
	v.SetDefault("artwork.width", d.Artwork.Width)
	v.SetDefault("artwork.height", d.Artwork.Height)
	v.SetDefault("read_only", d.ReadOnly)
	v.SetDefault("viewport.min_zoom", d.Viewport.MinZoom)
	v.SetDefault("viewport.max_zoom", d.Viewport.MaxZoom)
	v.SetDefault("viewport.zoom_step", d.Viewport.ZoomStep)
	v.SetDefault("audio.enabled", d.Audio.Enabled)
	v.SetDefault("audio.capture.device", d.Audio.Capture.DeviceName)
	v.SetDefault("audio.capture.sample_rate", d.Audio.Capture.SampleRate)
	v.SetDefault("audio.capture.channels", d.Audio.Capture.Channels)
	v.SetDefault("audio.capture.max_duration", d.Audio.Capture.MaxDuration)
	v.SetDefault("audio.max_upload_attempts", d.Audio.MaxUploadAttempts)
	v.SetDefault("media.backend", d.Media.Backend)
	v.SetDefault("media.local.dir", d.Media.Local.Dir)
	v.SetDefault("media.s3.endpoint", d.Media.S3.Endpoint)
	v.SetDefault("media.s3.bucket", d.Media.S3.Bucket)
	v.SetDefault("media.s3.prefix", d.Media.S3.Prefix)
	v.SetDefault("media.s3.region", d.Media.S3.Region)
	v.SetDefault("media.s3.access_key_id", d.Media.S3.AccessKeyID)
	v.SetDefault("media.s3.secret_access_key", d.Media.S3.SecretAccessKey)
	v.SetDefault("media.s3.use_ssl", d.Media.S3.UseSSL)
	v.SetDefault("media.s3.public_base_url", d.Media.S3.PublicBaseURL)
	v.SetDefault("media.s3.presign_expiry", d.Media.S3.PresignExpiry)
	v.SetDefault("transcribe.enabled", d.Transcribe.Enabled)
	v.SetDefault("transcribe.socket", d.Transcribe.Socket)
	v.SetDefault("transcribe.locale", d.Transcribe.Locale)
	v.SetDefault("transcribe.timeout", d.Transcribe.Timeout)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("threads.ttl", d.Threads.TTL)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
}

// Load reads the configuration from path, applying VIU_ environment
// overrides on top. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, errors.New(err).
					Component("config").
					Category(errors.CategoryConfiguration).
					Context("path", path).
					Build()
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(err).
			Component("config").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal").
			Build()
	}
	return &cfg, nil
}

// Validate checks that the configuration can drive a session.
func (c *Config) Validate() error {
	switch {
	case c.Artwork.ID == "":
		return invalid("artwork.id is required")
	case c.Artwork.Version <= 0:
		return invalid("artwork.version must be positive")
	case c.Artwork.Width <= 0 || c.Artwork.Height <= 0:
		return invalid("artwork.width and artwork.height must be positive")
	case c.Database.Path == "":
		return invalid("database.path is required")
	case c.Audio.MaxUploadAttempts <= 0:
		return invalid("audio.max_upload_attempts must be positive")
	case c.Threads.TTL < 0:
		return invalid("threads.ttl must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return invalid(fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}
	if err := c.Viewport.Validate(); err != nil {
		return err
	}
	if c.Audio.Enabled {
		if err := c.Media.Validate(); err != nil {
			return err
		}
	}
	if c.Transcribe.Enabled && c.Transcribe.Socket == "" {
		return invalid("transcribe.socket is required when transcription is enabled")
	}
	return nil
}

// Save writes the configuration to path, creating directories as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Write with restricted permissions (user-only read/write)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func invalid(msg string) error {
	return errors.New(nil).
		Component("config").
		Category(errors.CategoryConfiguration).
		Context("error", msg).
		Build()
}
