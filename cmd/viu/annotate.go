package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/app"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/config"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/logging"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/media"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/metrics"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/store"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/transcribe"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

const transcriberCheckTimeout = 2 * time.Second

type annotateFlags struct {
	artworkID string
	version   int
	readOnly  bool
	name      string
}

func newAnnotateCmd(configPath *string) *cobra.Command {
	var flags annotateFlags

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Open an artwork version for review",
		Long: `Open an artwork version for review.

Press c to enter comment mode and click the artwork to drop a pin, or g for a
general comment. Voice comments are recorded with ctrl+r inside a draft.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runAnnotate(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&flags.artworkID, "artwork", "", "artwork id (overrides artwork.id)")
	cmd.Flags().IntVar(&flags.version, "version", 0, "artwork version (overrides artwork.version)")
	cmd.Flags().BoolVar(&flags.readOnly, "read-only", false, "open without editing rights")
	cmd.Flags().StringVar(&flags.name, "name", "", "display name for new comments")

	return cmd
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f annotateFlags) {
	if f.artworkID != "" {
		cfg.Artwork.ID = f.artworkID
	}
	if f.version > 0 {
		cfg.Artwork.Version = f.version
	}
	if cmd.Flags().Changed("read-only") {
		cfg.ReadOnly = f.readOnly
	}
	if f.name != "" {
		cfg.Identity.Name = f.name
	}
}

func runAnnotate(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, closer, err := logging.Open(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	storeOpts := []store.Option{store.WithLogger(logger)}
	if cfg.ReadOnly {
		storeOpts = append(storeOpts, store.ReadOnly())
	}
	st, err := store.Open(cfg.Database.Path, storeOpts...)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}
	if cfg.Metrics.Listen != "" {
		stop := serveMetrics(cfg.Metrics.Listen, registry, logger)
		defer stop()
	}

	opts := app.Options{
		Artwork:           cfg.Artwork.Ref(),
		Title:             cfg.Artwork.Title,
		Natural:           viewport.Size{W: float64(cfg.Artwork.Width), H: float64(cfg.Artwork.Height)},
		Viewport:          cfg.Viewport,
		Backend:           st,
		Identity:          cfg.Identity.Author(),
		ReadOnly:          cfg.ReadOnly,
		MaxUploadAttempts: cfg.Audio.MaxUploadAttempts,
		ThreadTTL:         cfg.Threads.TTL,
		Logger:            logger,
		Metrics:           m,
	}
	if cfg.Audio.Enabled && !cfg.ReadOnly {
		uploader, err := media.New(ctx, cfg.Media, logger)
		if err != nil {
			return fmt.Errorf("media uploader: %w", err)
		}
		opts.Uploader = uploader
		opts.Microphone = audio.NewMalgoMicrophone(cfg.Audio.Capture, logger)
	}
	if cfg.Transcribe.Enabled {
		client := transcribe.NewClient(cfg.Transcribe.Socket,
			transcribe.WithLocale(cfg.Transcribe.Locale),
			transcribe.WithTimeout(cfg.Transcribe.Timeout),
			transcribe.WithLogger(logger),
		)
		checkTranscriber(ctx, client, logging.Console(os.Stderr), logger)
		opts.Transcriber = client
	}

	model, err := app.New(opts)
	if err != nil {
		return err
	}
	defer model.Dispose()

	logger.Info().
		Str("artwork", cfg.Artwork.ID).
		Int("version", cfg.Artwork.Version).
		Bool("read_only", cfg.ReadOnly).
		Msg("annotation session started")

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// statusChecker reports whether the transcription service is up.
type statusChecker interface {
	Status(ctx context.Context) (string, error)
}

// checkTranscriber warns on the console when the transcription service does
// not answer. Voice comments still work without it; they just stay untranscribed.
func checkTranscriber(ctx context.Context, c statusChecker, console, logger zerolog.Logger) bool {
	ctx, cancel := context.WithTimeout(ctx, transcriberCheckTimeout)
	defer cancel()

	status, err := c.Status(ctx)
	if err != nil {
		console.Warn().Err(err).Msg("transcription service unavailable, voice comments will not be transcribed")
		logger.Warn().Err(err).Msg("transcription service unavailable")
		return false
	}
	logger.Info().Str("status", status).Msg("transcription service ready")
	return true
}

// serveMetrics exposes registry on addr until the returned stop is called.
func serveMetrics(addr string, registry *prometheus.Registry, logger zerolog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
