package audio

import (
	"context"
	"sync"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxUploadAttempts bounds upload retries for one clip.
const DefaultMaxUploadAttempts = 3

// State is the recording state of a pipeline.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateUploading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateUploading:
		return "uploading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// UploadJob is the ticket for one upload attempt of a stopped recording.
type UploadJob struct {
	Clip    Clip
	Attempt int
	gen     uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithArbiter sets the microphone lease shared with other pipelines.
func WithArbiter(a *Arbiter) Option {
	return func(p *Pipeline) { p.arbiter = a }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger.With().Str("component", "audio").Logger() }
}

// WithMetrics records recording and upload outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock overrides the clock used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithMaxUploadAttempts bounds upload attempts per clip.
func WithMaxUploadAttempts(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// Pipeline records one voice comment at a time and uploads the result.
type Pipeline struct {
	mu          sync.Mutex
	id          string
	mic         Microphone
	arbiter     *Arbiter
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
	maxAttempts int

	state     State
	capture   Capture
	startedAt time.Time
	elapsed   time.Duration
	clip      *Clip
	attempts  int
	asset     Asset
	lastErr   error
	permErr   error
	exhausted bool
	gen       uint64
	disposed  bool
}

// NewPipeline creates an idle pipeline recording from mic.
func NewPipeline(mic Microphone, opts ...Option) *Pipeline {
	p := &Pipeline{
		id:          uuid.NewString(),
		mic:         mic,
		arbiter:     SharedArbiter,
		logger:      zerolog.Nop(),
		now:         time.Now,
		maxAttempts: DefaultMaxUploadAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start requests the microphone and begins recording. Calling Start while
// already recording is a no-op. A denied microphone leaves the pipeline in
// StateError with PermissionErr set.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.disposed:
		return stateErr("pipeline disposed")
	case p.state == StateRecording:
		return nil
	case p.state == StateUploading:
		return stateErr("upload in progress")
	}
	if p.mic == nil {
		return p.fail(errors.New(nil).
			Component("audio").
			Category(errors.CategoryPermissionDenied).
			Context("error", "no microphone available").
			Build())
	}
	if err := p.arbiter.Acquire(p.id); err != nil {
		return err
	}

	capture, err := p.mic.Open(ctx)
	if err != nil {
		p.arbiter.Release(p.id)
		if !errors.IsCategory(err, errors.CategoryPermissionDenied) {
			err = errors.New(err).
				Component("audio").
				Category(errors.CategoryPermissionDenied).
				Context("operation", "open_microphone").
				Build()
		}
		return p.fail(err)
	}

	p.resetLocked()
	p.capture = capture
	p.state = StateRecording
	p.startedAt = p.now()
	p.metrics.RecordRecording(metrics.ResultSuccess)
	p.logger.Debug().Str("pipeline", p.id).Msg("recording started")
	return nil
}

func (p *Pipeline) fail(err error) error {
	p.resetLocked()
	p.state = StateError
	p.permErr = err
	p.lastErr = err
	p.metrics.RecordRecording(metrics.ResultFailure)
	p.logger.Warn().Err(err).Str("pipeline", p.id).Msg("microphone unavailable")
	return err
}

// Stop finalizes the recording and returns the first upload job. The
// microphone is released whether or not finalizing succeeds.
func (p *Pipeline) Stop() (UploadJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRecording {
		return UploadJob{}, stateErr("not recording")
	}
	clip, err := p.capture.Stop()
	p.capture = nil
	p.arbiter.Release(p.id)
	p.elapsed = p.now().Sub(p.startedAt)

	if err != nil {
		p.state = StateError
		p.lastErr = errors.New(err).
			Component("audio").
			Category(errors.CategoryState).
			Context("operation", "finalize_capture").
			Build()
		return UploadJob{}, p.lastErr
	}

	if clip.Duration == 0 {
		clip.Duration = p.elapsed
	}
	p.clip = &clip
	p.attempts = 0
	return p.nextJobLocked(), nil
}

func (p *Pipeline) nextJobLocked() UploadJob {
	p.gen++
	p.state = StateUploading
	p.lastErr = nil
	return UploadJob{Clip: *p.clip, Attempt: p.attempts + 1, gen: p.gen}
}

// Upload sends the job's clip through uploader. It does not touch pipeline
// state and is meant to run off the event loop.
func (p *Pipeline) Upload(ctx context.Context, job UploadJob, uploader Uploader) (Asset, error) {
	if uploader == nil {
		return Asset{}, errors.NewStd("no media uploader configured")
	}
	return uploader.UploadAudio(ctx, job.Clip)
}

// SettleUpload applies an upload result. Results for a superseded job, or
// arriving after Dispose or Discard, are ignored.
func (p *Pipeline) SettleUpload(job UploadJob, asset Asset, uploadErr error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed || job.gen != p.gen || p.state != StateUploading {
		p.logger.Debug().Int("attempt", job.Attempt).Msg("stale upload result ignored")
		return nil
	}
	p.attempts++

	if uploadErr == nil && asset.Ref == "" {
		uploadErr = errors.NewStd("upload returned no asset reference")
	}
	if uploadErr != nil {
		p.metrics.RecordUpload(metrics.ResultFailure)
		p.lastErr = errors.New(uploadErr).
			Component("audio").
			Category(errors.CategoryUploadFailed).
			Context("attempt", p.attempts).
			Context("max_attempts", p.maxAttempts).
			Build()
		if p.attempts >= p.maxAttempts {
			// Out of retries: the clip is discarded and must be re-recorded.
			p.clip = nil
			p.exhausted = true
			p.state = StateIdle
			p.logger.Warn().Err(uploadErr).Int("attempts", p.attempts).Msg("upload retries exhausted")
		} else {
			p.state = StateError
			p.logger.Warn().Err(uploadErr).Int("attempt", p.attempts).Msg("upload failed")
		}
		return p.lastErr
	}

	p.metrics.RecordUpload(metrics.ResultSuccess)
	p.asset = asset
	p.clip = nil
	p.state = StateReady
	p.logger.Debug().Str("asset", asset.Ref).Msg("upload ready")
	return nil
}

// CanRetry reports whether a failed upload can be attempted again.
func (p *Pipeline) CanRetry() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canRetryLocked()
}

func (p *Pipeline) canRetryLocked() bool {
	return !p.disposed && p.state == StateError && p.clip != nil && p.attempts < p.maxAttempts
}

// RetryUpload re-issues the kept clip after a failed upload.
func (p *Pipeline) RetryUpload() (UploadJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.canRetryLocked() {
		return UploadJob{}, stateErr("nothing to retry")
	}
	return p.nextJobLocked(), nil
}

// Discard drops any recording, clip or asset and returns to idle. An active
// capture is aborted and the microphone released.
func (p *Pipeline) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abortLocked()
	p.resetLocked()
}

// Dispose is the teardown hook. An active recording is force-stopped and the
// microphone released; later results are ignored. Safe to call repeatedly.
func (p *Pipeline) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	p.abortLocked()
	p.resetLocked()
	p.disposed = true
}

func (p *Pipeline) abortLocked() {
	if p.capture != nil {
		p.capture.Abort()
		p.capture = nil
		p.logger.Debug().Str("pipeline", p.id).Msg("recording aborted")
	}
	p.arbiter.Release(p.id)
}

func (p *Pipeline) resetLocked() {
	p.gen++
	p.state = StateIdle
	p.clip = nil
	p.attempts = 0
	p.asset = Asset{}
	p.lastErr = nil
	p.permErr = nil
	p.exhausted = false
	p.elapsed = 0
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Busy reports whether a recording or upload is in progress.
func (p *Pipeline) Busy() bool {
	s := p.State()
	return s == StateRecording || s == StateUploading
}

// Elapsed returns the recording time so far, or the final length once stopped.
func (p *Pipeline) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRecording {
		return p.now().Sub(p.startedAt)
	}
	return p.elapsed
}

// Asset returns the uploaded asset once the pipeline is ready.
func (p *Pipeline) Asset() (Asset, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asset, p.state == StateReady
}

// Err returns the last recording or upload error.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// PermissionErr returns the microphone denial, if the last Start was denied.
func (p *Pipeline) PermissionErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permErr
}

// Exhausted reports whether the last clip was dropped after running out of
// upload attempts.
func (p *Pipeline) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Attempts returns the number of settled upload attempts for the current clip.
func (p *Pipeline) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

func stateErr(msg string) error {
	return errors.New(nil).
		Component("audio").
		Category(errors.CategoryState).
		Context("error", msg).
		Build()
}
