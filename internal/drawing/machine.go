// Package drawing turns pointer gestures into raster edits and keeps the
// undo history of a drawing session.
package drawing

import (
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"time"

	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/geom"
	"github.com/example/trackpaddraw/internal/history"
	"github.com/example/trackpaddraw/internal/surface"
)

// PointerEvent is a pointer or touch position in client space. When Touches
// is non-empty the first touch is used instead of Client.
type PointerEvent struct {
	Client  geom.Point
	Touches []geom.Point
}

// At builds a PointerEvent for a single client position.
func At(x, y float64) PointerEvent { return PointerEvent{Client: geom.Pt(x, y)} }

func (e PointerEvent) point() geom.Point {
	if len(e.Touches) > 0 {
		return e.Touches[0]
	}
	return e.Client
}

// Machine is the drawing engine for one session. It owns the surface, the
// drawing settings and the undo history. Gesture methods are meant to be
// driven from a single event loop; restores triggered by Undo and Redo run
// on a background worker and are always applied before the next gesture,
// export or image read.
type Machine struct {
	mu       sync.Mutex
	surface  surface.Surface
	state    State
	viewport geom.Rect
	start    geom.Point
	backup   *image.RGBA
	history  *history.Stack[surface.Snapshot]
	restorer *history.Restorer[surface.Snapshot]
	limit    int
	onChange func()
}

// Option modifies a Machine during creation.
type Option func(*Machine)

// WithHistoryLimit bounds the number of undo entries kept.
func WithHistoryLimit(n int) Option { return func(m *Machine) { m.limit = n } }

// WithState sets the initial tool, colour and width. Invalid values fall
// back to the defaults.
func WithState(s State) Option { return func(m *Machine) { m.state = s } }

// WithViewport sets the display rectangle used to map client positions.
func WithViewport(r geom.Rect) Option { return func(m *Machine) { m.viewport = r } }

// WithChangeListener registers a callback invoked after the raster changes.
// It may be called from the restore worker goroutine.
func WithChangeListener(fn func()) Option { return func(m *Machine) { m.onChange = fn } }

// New creates a Machine drawing on s and records the blank starting
// snapshot. Without WithViewport, client positions map one to one onto the
// surface.
func New(s surface.Surface, opts ...Option) (*Machine, error) {
	if s == nil || s.Size().Empty() {
		return nil, surface.ErrSurfaceUnavailable
	}
	size := s.Size()
	m := &Machine{
		surface:  s,
		state:    DefaultState(),
		viewport: geom.Rect{Width: float64(size.Width), Height: float64(size.Height)},
		limit:    history.DefaultCapacity,
	}
	for _, o := range opts {
		o(m)
	}
	if !ValidColor(m.state.Color) {
		m.state.Color = DefaultColor
	}
	m.state.StrokeWidth = ClampStrokeWidth(m.state.StrokeWidth)
	m.state.GestureActive = false
	m.history = history.New[surface.Snapshot](m.limit)
	m.restorer = history.NewRestorer(m.restore)

	snap, err := s.EncodeSnapshot()
	if err != nil {
		m.restorer.Close()
		return nil, fmt.Errorf("%w: %v", surface.ErrSurfaceUnavailable, err)
	}
	m.history.Push(snap)
	return m, nil
}

func (m *Machine) restore(s surface.Snapshot) error {
	if err := m.surface.DecodeAndDraw(s); err != nil {
		return err
	}
	m.changed()
	return nil
}

func (m *Machine) changed() {
	if m.onChange != nil {
		m.onChange()
	}
}

// Close stops the restore worker after applying queued restores.
func (m *Machine) Close() {
	m.restorer.Close()
}

// Wait blocks until queued restores have been applied.
func (m *Machine) Wait() error {
	return m.restorer.Wait()
}

// SetViewport updates the display rectangle of the surface.
func (m *Machine) SetViewport(r geom.Rect) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = r
}

// Viewport returns the display rectangle of the surface.
func (m *Machine) Viewport() geom.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport
}

// Size returns the backing size of the surface.
func (m *Machine) Size() geom.Size { return m.surface.Size() }

// State returns a copy of the current settings.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetTool selects the tool used by the next gesture.
func (m *Machine) SetTool(t Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Tool = t
}

// SetColor sets the stroke colour. Text that is not #RRGGBB is rejected and
// the previous colour is kept.
func (m *Machine) SetColor(hex string) error {
	if !ValidColor(hex) {
		return &InvalidColorError{Input: hex}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Color = hex
	return nil
}

// SetStrokeWidth sets the stroke width clamped to 1..50 and returns the value
// applied.
func (m *Machine) SetStrokeWidth(w int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.StrokeWidth = ClampStrokeWidth(w)
	return m.state.StrokeWidth
}

// GestureStart begins a stroke or shape at the event position. A start while
// a gesture is already active finishes that gesture first.
func (m *Machine) GestureStart(ev PointerEvent) error {
	if m.State().GestureActive {
		if err := m.GestureEnd(); err != nil {
			return err
		}
	}
	if err := m.restorer.Wait(); err != nil {
		log.Printf("gesture start: pending restore: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p := geom.Map(ev.point(), m.viewport, m.surface.Size())
	m.start = p
	m.state.GestureActive = true

	if m.state.Tool.Freehand() {
		mode := surface.CompositeNormal
		if m.state.Tool == ToolEraser {
			mode = surface.CompositeSubtract
		}
		m.surface.SetCompositeMode(mode)
		m.surface.SetStrokeStyle(m.state.Color, float64(m.state.StrokeWidth))
		m.surface.BeginPath()
		m.surface.MoveTo(p)
		return nil
	}
	m.backup = m.surface.Backup()
	return nil
}

// GestureMove extends the active stroke or redraws the shape preview. It is
// ignored when no gesture is active.
func (m *Machine) GestureMove(ev PointerEvent) error {
	m.mu.Lock()
	if !m.state.GestureActive {
		m.mu.Unlock()
		return nil
	}
	p := geom.Map(ev.point(), m.viewport, m.surface.Size())
	err := m.drawTo(p)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.changed()
	return nil
}

func (m *Machine) drawTo(p geom.Point) error {
	s := m.surface
	if m.state.Tool.Freehand() {
		s.LineTo(p)
		return s.Stroke()
	}

	s.Put(m.backup)
	s.SetCompositeMode(surface.CompositeNormal)
	s.SetStrokeStyle(m.state.Color, float64(m.state.StrokeWidth))
	s.BeginPath()
	switch m.state.Tool {
	case ToolLine:
		s.MoveTo(m.start)
		s.LineTo(p)
	case ToolCircle:
		s.Arc(m.start, geom.Distance(m.start, p))
	case ToolRectangle:
		w, h := geom.Span(m.start, p)
		s.Rect(m.start, w, h)
	}
	return s.Stroke()
}

// GestureEnd commits the active gesture as a new history entry. It is
// ignored when no gesture is active.
func (m *Machine) GestureEnd() error {
	if err := m.restorer.Wait(); err != nil {
		log.Printf("gesture end: pending restore: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.GestureActive {
		return nil
	}
	if m.state.Tool.Freehand() {
		m.surface.BeginPath()
	}
	m.state.GestureActive = false
	m.start = geom.Point{}
	m.backup = nil
	m.surface.SetCompositeMode(surface.CompositeNormal)

	snap, err := m.surface.EncodeSnapshot()
	if err != nil {
		return fmt.Errorf("commit gesture: %w", err)
	}
	m.history.Push(snap)
	return nil
}

// CanUndo reports whether there is a change to undo.
func (m *Machine) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.CanUndo()
}

// CanRedo reports whether there is an undone change to redo.
func (m *Machine) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.CanRedo()
}

// HistoryLen returns the number of undo and redo entries.
func (m *Machine) HistoryLen() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Len(), m.history.RedoLen()
}

// finish commits a gesture still in progress.
func (m *Machine) finish(op string) {
	if !m.State().GestureActive {
		return
	}
	if err := m.GestureEnd(); err != nil {
		log.Printf("%s: %v", op, err)
	}
}

// Undo reverts the newest change, committing an unfinished gesture first.
// The surface is restored asynchronously; the returned flag reports whether
// anything was undone.
func (m *Machine) Undo() bool {
	m.finish("undo")
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.history.Undo()
	if !ok {
		return false
	}
	if err := m.restorer.Enqueue(snap); err != nil {
		log.Printf("undo: %v", err)
	}
	return true
}

// Redo reapplies the newest undone change.
func (m *Machine) Redo() bool {
	m.finish("redo")
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.history.Redo()
	if !ok {
		return false
	}
	if err := m.restorer.Enqueue(snap); err != nil {
		log.Printf("redo: %v", err)
	}
	return true
}

// Clear ends any active gesture, blanks the surface and empties the
// history. No blank entry is recorded, so Undo stays unavailable until two
// more gestures complete.
func (m *Machine) Clear() {
	m.finish("clear")
	if err := m.restorer.Wait(); err != nil {
		log.Printf("clear: pending restore: %v", err)
	}
	m.mu.Lock()
	m.history.Clear()
	m.backup = nil
	m.surface.Clear()
	m.mu.Unlock()
	m.changed()
}

// Image returns a copy of the surface once pending restores have applied.
func (m *Machine) Image() *image.RGBA {
	if err := m.restorer.Wait(); err != nil {
		log.Printf("image: pending restore: %v", err)
	}
	return m.surface.Image()
}

// Export writes the surface in format f.
func (m *Machine) Export(w io.Writer, f export.Format) error {
	return export.Encode(w, m.Image(), f)
}

// ExportFile saves the surface into dir using the drawing_<millis> naming
// and returns the written path.
func (m *Machine) ExportFile(dir string, f export.Format) (string, error) {
	return export.Save(dir, m.Image(), f, time.Now())
}
