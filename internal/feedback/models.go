// Package feedback holds the annotation data model, the version-scoped
// feedback repository with optimistic create and resolve/reopen, and pin
// navigation over the repository's items.
package feedback

import (
	"context"
	"strings"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/geometry"
)

// Kind is the payload type of a feedback item.
type Kind string

const (
	KindText  Kind = "TEXT"
	KindAudio Kind = "AUDIO"
)

// Status is the resolution state of a feedback item.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusResolved Status = "RESOLVED"
)

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusResolved {
		return StatusOpen
	}
	return StatusResolved
}

// Position is a normalized pin location on the artwork's natural box.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition returns a position with both axes clamped to [0,1].
func NewPosition(x, y float64) Position {
	return Position{X: geometry.Clamp01(x), Y: geometry.Clamp01(y)}
}

// PositionFromPoint clamps a normalized geometry point into a Position.
func PositionFromPoint(p geometry.Point) Position {
	return NewPosition(p.X, p.Y)
}

// Point returns the position as a normalized geometry point.
func (p Position) Point() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// Author is the display snapshot of who wrote an item.
type Author struct {
	DisplayName string `json:"display_name"`
	Contact     string `json:"contact,omitempty"`
}

// Label returns the name to show for the author.
func (a Author) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.Contact != "" {
		return a.Contact
	}
	return "anonymous"
}

// ArtworkRef identifies one version of one artwork.
type ArtworkRef struct {
	ArtworkID string `json:"artwork_id"`
	Version   int    `json:"version"`
}

// Item is one comment anchored to an artwork version.
type Item struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	Content   string     `json:"content,omitempty"`
	AudioRef  string     `json:"audio_ref,omitempty"`
	AudioURL  string     `json:"audio_url,omitempty"`
	Position  *Position  `json:"position,omitempty"`
	Status    Status     `json:"status"`
	Author    Author     `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
	Artwork   ArtworkRef `json:"artwork"`
	ParentID  string     `json:"parent_id,omitempty"`

	// Pending is true while the item is optimistic and not yet confirmed.
	Pending bool `json:"-"`
}

// IsPin reports whether the item is drawn as a marker on the artwork.
func (i Item) IsPin() bool { return i.Position != nil }

// IsReply reports whether the item belongs to a thread.
func (i Item) IsReply() bool { return i.ParentID != "" }

// Draft is an uncommitted comment handed over by the composer or a reply box.
type Draft struct {
	Kind     Kind
	Content  string
	AudioRef string
	AudioURL string
	Position *Position
	ParentID string
	Author   Author
}

// Input is what the persistence boundary receives for a new item.
type Input struct {
	Artwork  ArtworkRef `json:"artwork"`
	Kind     Kind       `json:"kind"`
	Content  string     `json:"content,omitempty"`
	AudioRef string     `json:"audio_ref,omitempty"`
	AudioURL string     `json:"audio_url,omitempty"`
	Position *Position  `json:"position,omitempty"`
	ParentID string     `json:"parent_id,omitempty"`
	Author   Author     `json:"author"`
}

// Normalize validates a draft and returns it in canonical form: trimmed
// content, clamped position, and no position on replies.
func (d Draft) Normalize() (Draft, error) {
	d.Content = strings.TrimSpace(d.Content)
	switch d.Kind {
	case KindText:
		if d.Content == "" {
			return d, invalidDraft("text comment needs content")
		}
		d.AudioRef, d.AudioURL = "", ""
	case KindAudio:
		if d.AudioRef == "" {
			return d, invalidDraft("audio comment needs an uploaded asset")
		}
	default:
		return d, invalidDraft("unknown comment kind " + string(d.Kind))
	}
	if d.ParentID != "" {
		d.Position = nil
	} else if d.Position != nil {
		p := NewPosition(d.Position.X, d.Position.Y)
		d.Position = &p
	}
	return d, nil
}

// Input returns the persistence input for the draft on the given artwork.
func (d Draft) Input(artwork ArtworkRef) Input {
	return Input{
		Artwork:  artwork,
		Kind:     d.Kind,
		Content:  d.Content,
		AudioRef: d.AudioRef,
		AudioURL: d.AudioURL,
		Position: d.Position,
		ParentID: d.ParentID,
		Author:   d.Author,
	}
}

func invalidDraft(msg string) error {
	return errors.New(nil).
		Component("feedback").
		Category(errors.CategoryValidation).
		Context("error", msg).
		Build()
}

// Persistence is the durable-storage boundary for top-level feedback.
type Persistence interface {
	SubmitFeedback(ctx context.Context, in Input) (Item, error)
	SetStatus(ctx context.Context, id string, status Status) error
}

// Lister loads the existing feedback for an artwork version.
type Lister interface {
	ListFeedback(ctx context.Context, artwork ArtworkRef) ([]Item, error)
}
