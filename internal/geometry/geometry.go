// Package geometry maps pointer positions to normalized artwork coordinates
// and back. Normalized coordinates are fractions of the artwork's rendered
// box, so they do not depend on zoom level or container size.
package geometry

// Point is a position in client space or, once normalized, in [0,1]².
type Point struct {
	X float64
	Y float64
}

// Rect is the artwork's rendered box in client space.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToNormalized maps a client-space pointer position into the rect's
// normalized space. A pointer outside the rect lands on the nearest edge.
func ToNormalized(p Point, r Rect) Point {
	return Point{
		X: normalizeAxis(p.X, r.X, r.W),
		Y: normalizeAxis(p.Y, r.Y, r.H),
	}
}

// ToPixel maps a normalized position back to client space for the given rect.
func ToPixel(n Point, r Rect) Point {
	return Point{
		X: r.X + n.X*r.W,
		Y: r.Y + n.Y*r.H,
	}
}

func normalizeAxis(v, origin, extent float64) float64 {
	if extent <= 0 {
		return 0
	}
	return Clamp01((v - origin) / extent)
}
