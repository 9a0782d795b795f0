// Package media uploads recorded audio clips and returns playable references.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var errEmptyClip = errors.NewStd("clip has no data")

// Backend names.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config selects and configures the upload backend.
type Config struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Local   LocalConfig `mapstructure:"local" yaml:"local"`
	S3      S3Config    `mapstructure:"s3" yaml:"s3"`
}

// Validate checks the selected backend's settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Local.Dir == "" {
			return configErr("media.local.dir is required")
		}
		return nil
	case BackendS3:
		return c.S3.Validate()
	default:
		return configErr(fmt.Sprintf("unknown media backend %q", c.Backend))
	}
}

// New creates the uploader for cfg.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (audio.Uploader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendS3:
		return NewS3Uploader(ctx, cfg.S3, logger)
	default:
		return NewLocalUploader(cfg.Local.Dir, logger)
	}
}

// objectName returns a fresh object name for clip under prefix.
func objectName(prefix string, clip audio.Clip) string {
	name := uuid.NewString() + extension(clip.MIMEType)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		return path.Join(prefix, name)
	}
	return name
}

func extension(mimeType string) string {
	switch mimeType {
	case audio.WAVMIMEType, "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/mpeg":
		return ".mp3"
	default:
		return ".bin"
	}
}

func uploadErr(err error, backend, key string) error {
	return errors.New(err).
		Component("media").
		Category(errors.CategoryUploadFailed).
		Context("backend", backend).
		Context("key", key).
		Build()
}

func configErr(msg string) error {
	return errors.New(nil).
		Component("media").
		Category(errors.CategoryConfiguration).
		Context("error", msg).
		Build()
}
