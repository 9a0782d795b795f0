// Package viewport owns the zoom level and pan offset of the artwork view.
// It never touches feedback data: zoom only changes the rect that pins are
// projected into.
package viewport

import (
	"fmt"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/geometry"
)

// DefaultZoom is the zoom percentage the view starts at and resets to.
const DefaultZoom = 100

// Size is a width/height pair in client units.
type Size struct {
	W float64
	H float64
}

// Config bounds the zoom step sequence.
type Config struct {
	MinZoom  int `mapstructure:"min_zoom" yaml:"min_zoom"`
	MaxZoom  int `mapstructure:"max_zoom" yaml:"max_zoom"`
	ZoomStep int `mapstructure:"zoom_step" yaml:"zoom_step"`
}

// DefaultConfig returns 25% steps between 25% and 300%.
func DefaultConfig() Config {
	return Config{MinZoom: 25, MaxZoom: 300, ZoomStep: 25}
}

// Validate checks that the bounds form a step sequence containing 100%.
func (c Config) Validate() error {
	switch {
	case c.ZoomStep <= 0:
		return invalid("zoom_step must be positive")
	case c.MinZoom <= 0:
		return invalid("min_zoom must be positive")
	case c.MaxZoom < c.MinZoom:
		return invalid("max_zoom must not be below min_zoom")
	case (c.MaxZoom-c.MinZoom)%c.ZoomStep != 0:
		return invalid("max_zoom must be reachable from min_zoom in zoom_step increments")
	case DefaultZoom < c.MinZoom || DefaultZoom > c.MaxZoom || (DefaultZoom-c.MinZoom)%c.ZoomStep != 0:
		return invalid(fmt.Sprintf("%d%% must be on the zoom step sequence", DefaultZoom))
	}
	return nil
}

func invalid(msg string) error {
	return errors.New(nil).
		Component("viewport").
		Category(errors.CategoryConfiguration).
		Context("error", msg).
		Build()
}

// Controller holds the zoom percentage and pan offset.
type Controller struct {
	cfg     Config
	zoom    int
	natural Size
	window  Size
	offset  geometry.Point
}

// New creates a controller at 100% for artwork of the given natural size.
func New(cfg Config, natural Size) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{cfg: cfg, zoom: DefaultZoom, natural: natural}, nil
}

// Zoom returns the current zoom percentage.
func (c *Controller) Zoom() int { return c.zoom }

// Scale returns the zoom as a multiplier.
func (c *Controller) Scale() float64 { return float64(c.zoom) / 100 }

// ZoomIn moves one step up, saturating at the maximum.
func (c *Controller) ZoomIn() { c.setZoom(min(c.zoom+c.cfg.ZoomStep, c.cfg.MaxZoom)) }

// ZoomOut moves one step down, saturating at the minimum.
func (c *Controller) ZoomOut() { c.setZoom(max(c.zoom-c.cfg.ZoomStep, c.cfg.MinZoom)) }

// Reset returns to 100%.
func (c *Controller) Reset() { c.setZoom(DefaultZoom) }

// CanReset reports whether the reset affordance should be offered.
func (c *Controller) CanReset() bool { return c.zoom != DefaultZoom }

func (c *Controller) setZoom(z int) {
	if z == c.zoom {
		return
	}
	ratio := float64(z) / float64(c.zoom)
	c.zoom = z
	// Keep roughly the same region in view, then re-clamp to the new extent.
	c.offset = geometry.Point{X: c.offset.X * ratio, Y: c.offset.Y * ratio}
	c.clampOffset()
}

// Natural returns the artwork's un-zoomed size.
func (c *Controller) Natural() Size { return c.natural }

// Rendered returns the artwork size at the current zoom.
func (c *Controller) Rendered() Size {
	s := c.Scale()
	return Size{W: c.natural.W * s, H: c.natural.H * s}
}

// SetWindow sets the visible area the artwork is drawn into.
func (c *Controller) SetWindow(s Size) {
	c.window = s
	c.clampOffset()
}

// Window returns the visible area size.
func (c *Controller) Window() Size { return c.window }

// Pan scrolls the view by (dx, dy), clamped so the artwork stays in view.
func (c *Controller) Pan(dx, dy float64) {
	c.offset.X += dx
	c.offset.Y += dy
	c.clampOffset()
}

// Offset returns the current scroll offset into the rendered artwork.
func (c *Controller) Offset() geometry.Point { return c.offset }

func (c *Controller) clampOffset() {
	r := c.Rendered()
	c.offset.X = clampRange(c.offset.X, 0, max(0, r.W-c.window.W))
	c.offset.Y = clampRange(c.offset.Y, 0, max(0, r.H-c.window.H))
}

// Container returns the rendered artwork rect in client space, given the
// client position of the window's top-left corner.
func (c *Controller) Container(origin geometry.Point) geometry.Rect {
	r := c.Rendered()
	return geometry.Rect{
		X: origin.X - c.offset.X,
		Y: origin.Y - c.offset.Y,
		W: r.W,
		H: r.H,
	}
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
