package viewport

import (
	"testing"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	c, err := New(DefaultConfig(), Size{W: 500, H: 400})
	require.NoError(t, err)
	return c
}

func TestZoomSaturatesAtBounds(t *testing.T) {
	t.Parallel()

	c := newController(t)
	assert.Equal(t, 100, c.Zoom())
	assert.False(t, c.CanReset())

	for range 20 {
		c.ZoomIn()
	}
	assert.Equal(t, 300, c.Zoom())

	for range 20 {
		c.ZoomOut()
	}
	assert.Equal(t, 25, c.Zoom())
	assert.True(t, c.CanReset())

	c.Reset()
	assert.Equal(t, 100, c.Zoom())
	assert.False(t, c.CanReset())
}

func TestZoomStepsBy25(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.ZoomIn()
	c.ZoomIn()
	assert.Equal(t, 150, c.Zoom())
	assert.Equal(t, Size{W: 750, H: 600}, c.Rendered())
}

func TestContainerFollowsZoomAndPan(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.SetWindow(Size{W: 300, H: 200})
	origin := geometry.Point{X: 10, Y: 5}

	assert.Equal(t, geometry.Rect{X: 10, Y: 5, W: 500, H: 400}, c.Container(origin))

	c.Pan(50, 30)
	assert.Equal(t, geometry.Rect{X: -40, Y: -25, W: 500, H: 400}, c.Container(origin))

	// Pan is clamped so the artwork stays in view.
	c.Pan(10_000, 10_000)
	assert.Equal(t, geometry.Point{X: 200, Y: 200}, c.Offset())
	c.Pan(-10_000, -10_000)
	assert.Equal(t, geometry.Point{}, c.Offset())
}

func TestZoomOutReclampsPan(t *testing.T) {
	t.Parallel()

	c := newController(t)
	c.SetWindow(Size{W: 500, H: 400})
	c.ZoomIn()
	c.ZoomIn()
	c.Pan(200, 200)
	assert.Equal(t, geometry.Point{X: 200, Y: 200}, c.Offset())

	c.Reset()
	assert.Equal(t, geometry.Point{}, c.Offset())
}

func TestPinStaysAtNormalizedPointAcrossZoom(t *testing.T) {
	t.Parallel()

	c := newController(t)
	origin := geometry.Point{}
	stored := geometry.ToNormalized(geometry.Point{X: 250, Y: 100}, c.Container(origin))

	c.ZoomIn()
	c.ZoomIn()
	box := c.Container(origin)
	pixel := geometry.ToPixel(stored, box)
	back := geometry.ToNormalized(pixel, box)

	assert.InDelta(t, 0.5, back.X, 1e-9)
	assert.InDelta(t, 0.25, back.Y, 1e-9)
	assert.InDelta(t, 375, pixel.X, 1e-9)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"narrow", Config{MinZoom: 50, MaxZoom: 200, ZoomStep: 50}, false},
		{"zero step", Config{MinZoom: 25, MaxZoom: 300}, true},
		{"inverted", Config{MinZoom: 300, MaxZoom: 25, ZoomStep: 25}, true},
		{"100 unreachable", Config{MinZoom: 30, MaxZoom: 330, ZoomStep: 25}, true},
		{"100 out of range", Config{MinZoom: 125, MaxZoom: 300, ZoomStep: 25}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
