// Package compose implements the draft state machine for a new comment: the
// pin position, typed text and recorded audio that have not been submitted.
package compose

import (
	"context"
	"strings"
	"sync"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/audio"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/geometry"
	"github.com/rs/zerolog"
)

// State is the composer's draft state.
type State int

const (
	StateClosed State = iota
	StatePlacing
	StateEditing
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StatePlacing:
		return "placing"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the composer logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Composer) { c.logger = logger.With().Str("component", "compose").Logger() }
}

// Composer holds at most one draft at a time.
type Composer struct {
	mu       sync.Mutex
	pipeline *audio.Pipeline
	logger   zerolog.Logger

	state    State
	position *feedback.Position
	text     []rune
	disposed bool
}

// New creates a closed composer that records audio through pipeline.
func New(pipeline *audio.Pipeline, opts ...Option) *Composer {
	c := &Composer{pipeline: pipeline, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Place anchors a draft at a normalized point. It only opens a draft while
// comment mode is on and the viewer may write. Placing again while drafting
// moves the pin and keeps the content.
func (c *Composer) Place(pos geometry.Point, commentMode, readOnly bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case readOnly:
		return readOnlyErr()
	case !commentMode:
		return stateErr("comment mode is off", c.state)
	case c.disposed:
		return stateErr("composer disposed", c.state)
	case c.state == StateSubmitting:
		return stateErr("draft is being submitted", c.state)
	}

	p := feedback.PositionFromPoint(pos)
	c.position = &p
	if c.state == StateClosed {
		c.state = StatePlacing
	}
	c.logger.Debug().Float64("x", p.X).Float64("y", p.Y).Msg("draft placed")
	return nil
}

// OpenGeneral opens an unpinned draft.
func (c *Composer) OpenGeneral(readOnly bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case readOnly:
		return readOnlyErr()
	case c.disposed:
		return stateErr("composer disposed", c.state)
	case c.state != StateClosed:
		return stateErr("a draft is already open", c.state)
	}
	c.position = nil
	c.state = StateEditing
	return nil
}

// Cancel discards the draft, including any recording or uploaded clip.
func (c *Composer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Composer) clearLocked() {
	c.state = StateClosed
	c.position = nil
	c.text = nil
	if c.pipeline != nil {
		c.pipeline.Discard()
	}
}

func (c *Composer) editableLocked() error {
	switch c.state {
	case StatePlacing:
		c.state = StateEditing
		return nil
	case StateEditing:
		return nil
	default:
		return stateErr("no editable draft", c.state)
	}
}

// SetText replaces the draft text.
func (c *Composer) SetText(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.text = []rune(s)
	return nil
}

// AppendRune adds typed input to the draft text.
func (c *Composer) AppendRune(r ...rune) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	c.text = append(c.text, r...)
	return nil
}

// Backspace removes the last rune of the draft text.
func (c *Composer) Backspace() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	if n := len(c.text); n > 0 {
		c.text = c.text[:n-1]
	}
	return nil
}

// StartRecording begins an audio recording for the draft.
func (c *Composer) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pipeline == nil {
		return stateErr("audio is not available", c.state)
	}
	if err := c.editableLocked(); err != nil {
		return err
	}
	return c.pipeline.Start(ctx)
}

// Audio returns the draft's recording pipeline.
func (c *Composer) Audio() *audio.Pipeline {
	return c.pipeline
}

// CanSubmit reports whether the draft holds a finished artifact.
func (c *Composer) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Composer) canSubmitLocked() bool {
	if c.disposed || c.state != StateEditing {
		return false
	}
	hasAudio := false
	if c.pipeline != nil {
		if c.pipeline.Busy() {
			return false
		}
		_, hasAudio = c.pipeline.Asset()
	}
	return hasAudio || strings.TrimSpace(string(c.text)) != ""
}

// BeginSubmit validates the draft and hands it out for creation. A nil
// identity yields an IdentityRequired error and leaves the draft editing.
func (c *Composer) BeginSubmit(identity *feedback.Author) (feedback.Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.canSubmitLocked() {
		return feedback.Draft{}, stateErr("draft cannot be submitted", c.state)
	}
	if identity == nil {
		return feedback.Draft{}, errors.New(nil).
			Component("compose").
			Category(errors.CategoryIdentityRequired).
			Context("error", "identify yourself before commenting").
			Build()
	}

	d := feedback.Draft{
		Kind:     feedback.KindText,
		Content:  strings.TrimSpace(string(c.text)),
		Position: c.position,
		Author:   *identity,
	}
	if c.pipeline != nil {
		if asset, ok := c.pipeline.Asset(); ok {
			d.Kind = feedback.KindAudio
			d.AudioRef = asset.Ref
			d.AudioURL = asset.PlayableURL
		}
	}
	c.state = StateSubmitting
	return d, nil
}

// Settle applies the create result. Success closes the draft and clears it;
// failure returns to editing with the text intact.
func (c *Composer) Settle(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.state != StateSubmitting {
		return
	}
	if err != nil {
		c.state = StateEditing
		c.logger.Debug().Err(err).Msg("submit failed, draft kept")
		return
	}
	c.clearLocked()
}

// Dispose discards the draft and releases the microphone. Safe to call twice.
func (c *Composer) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.state = StateClosed
	c.position = nil
	c.text = nil
	if c.pipeline != nil {
		c.pipeline.Dispose()
	}
}

// State returns the draft state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open reports whether a draft is open.
func (c *Composer) Open() bool {
	return c.State() != StateClosed
}

// Text returns the draft text.
func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.text)
}

// Position returns the draft pin, or nil for a general comment.
func (c *Composer) Position() *feedback.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position == nil {
		return nil
	}
	p := *c.position
	return &p
}

func stateErr(msg string, s State) error {
	return errors.New(nil).
		Component("compose").
		Category(errors.CategoryState).
		Context("state", s.String()).
		Context("error", msg).
		Build()
}

func readOnlyErr() error {
	return errors.New(nil).
		Component("compose").
		Category(errors.CategoryReadOnly).
		Context("error", "viewer is read-only").
		Build()
}
