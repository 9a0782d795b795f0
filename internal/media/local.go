package media

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/rs/zerolog"
)

// LocalConfig stores clips in a directory.
type LocalConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LocalUploader writes clips to a directory and serves them as file URLs.
type LocalUploader struct {
	dir    string
	logger zerolog.Logger
}

// NewLocalUploader creates the directory if needed.
func NewLocalUploader(dir string, logger zerolog.Logger) (*LocalUploader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, configErr("invalid media directory: " + err.Error())
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, uploadErr(err, BackendLocal, abs)
	}
	return &LocalUploader{dir: abs, logger: logger.With().Str("component", "media").Logger()}, nil
}

// UploadAudio writes clip to a new file.
func (u *LocalUploader) UploadAudio(ctx context.Context, clip audio.Clip) (audio.Asset, error) {
	if err := ctx.Err(); err != nil {
		return audio.Asset{}, uploadErr(err, BackendLocal, "")
	}
	if len(clip.Data) == 0 {
		return audio.Asset{}, uploadErr(errEmptyClip, BackendLocal, "")
	}

	name := objectName("", clip)
	full := filepath.Join(u.dir, name)
	tmp := full + ".part"
	if err := os.WriteFile(tmp, clip.Data, 0o644); err != nil {
		return audio.Asset{}, uploadErr(err, BackendLocal, name)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return audio.Asset{}, uploadErr(err, BackendLocal, name)
	}

	u.logger.Debug().Str("file", full).Int("bytes", len(clip.Data)).Msg("clip stored")
	return audio.Asset{
		Ref:         name,
		PlayableURL: (&url.URL{Scheme: "file", Path: filepath.ToSlash(full)}).String(),
	}, nil
}
