// Package surface wraps the raster the drawing engine paints into.
package surface

import (
	"errors"
	"image"
	"time"

	"github.com/example/trackpaddraw/internal/geom"
)

// ErrSurfaceUnavailable is returned when a drawing surface cannot be created.
var ErrSurfaceUnavailable = errors.New("drawing surface unavailable")

// CompositeMode selects how strokes combine with existing pixels.
type CompositeMode int

const (
	// CompositeNormal paints over existing pixels.
	CompositeNormal CompositeMode = iota
	// CompositeSubtract removes existing pixels where the stroke lands.
	CompositeSubtract
)

func (m CompositeMode) String() string {
	switch m {
	case CompositeNormal:
		return "source-over"
	case CompositeSubtract:
		return "destination-out"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable PNG encoding of a surface at one point in time.
// Data holds the raster bytes verbatim so a decode reproduces them exactly;
// it is not meant to be opened as a regular picture. Use Image for exports.
type Snapshot struct {
	ID    string
	Taken time.Time
	Data  []byte
}

// Surface is the set of raster operations the drawing engine relies on.
// Paths accumulate between BeginPath calls; Stroke paints the segments added
// since the previous Stroke and keeps the current point so drawing can
// continue from it.
type Surface interface {
	Size() geom.Size
	BeginPath()
	MoveTo(p geom.Point)
	LineTo(p geom.Point)
	Arc(center geom.Point, radius float64)
	Rect(origin geom.Point, w, h float64)
	Stroke() error
	Clear()
	SetCompositeMode(m CompositeMode)
	SetStrokeStyle(color string, width float64)
	EncodeSnapshot() (Snapshot, error)
	DecodeAndDraw(s Snapshot) error
	// Backup copies the raw raster, Put writes such a copy back.
	Backup() *image.RGBA
	Put(img *image.RGBA)
	Image() *image.RGBA
}
