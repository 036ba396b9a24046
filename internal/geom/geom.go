// Package geom converts pointer positions into drawing surface space and
// measures the shapes drawn between two points.
package geom

import (
	"image"
	"math"
)

// Point is a position in surface or client space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Rect is the on-screen rectangle a surface is displayed in, in client space.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// FromImageRect converts an integer rectangle, such as the destination
// rectangle of a scaled canvas, into a display Rect.
func FromImageRect(r image.Rectangle) Rect {
	return Rect{
		Left:   float64(r.Min.X),
		Top:    float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

// Size is the backing resolution of a surface in pixels.
type Size struct {
	Width, Height int
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

// Map converts a client position into surface coordinates by removing the
// display offset and scaling by backing/display size. The result is not
// clamped; points outside the surface map outside its bounds.
func Map(client Point, display Rect, backing Size) Point {
	if display.Width == 0 || display.Height == 0 {
		return Point{}
	}
	return Point{
		X: (client.X - display.Left) * float64(backing.Width) / display.Width,
		Y: (client.Y - display.Top) * float64(backing.Height) / display.Height,
	}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Span returns the signed width and height from start to current.
// Dragging up or left yields negative values.
func Span(start, current Point) (w, h float64) {
	return current.X - start.X, current.Y - start.Y
}
