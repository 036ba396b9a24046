package drawing

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/geom"
	"github.com/example/trackpaddraw/internal/surface"
)

func newMachine(t *testing.T, opts ...Option) *Machine {
	t.Helper()
	r, err := surface.NewRaster(geom.Size{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("NewRaster: %v", err)
	}
	m, err := New(r, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		m.Close()
		_ = r.Close()
	})
	return m
}

func gesture(t *testing.T, m *Machine, pts ...geom.Point) {
	t.Helper()
	if err := m.GestureStart(PointerEvent{Client: pts[0]}); err != nil {
		t.Fatalf("GestureStart: %v", err)
	}
	for _, p := range pts[1:] {
		if err := m.GestureMove(PointerEvent{Client: p}); err != nil {
			t.Fatalf("GestureMove: %v", err)
		}
	}
	if err := m.GestureEnd(); err != nil {
		t.Fatalf("GestureEnd: %v", err)
	}
}

func alphaAt(m *Machine, x, y int) uint8 {
	return m.Image().RGBAAt(x, y).A
}

func TestNewSessionDefaults(t *testing.T) {
	m := newMachine(t)
	st := m.State()
	if st.Tool != ToolBrush || st.Color != "#000000" || st.StrokeWidth != 5 || st.GestureActive {
		t.Fatalf("unexpected defaults %+v", st)
	}
	if undo, redo := m.HistoryLen(); undo != 1 || redo != 0 {
		t.Fatalf("HistoryLen = (%d, %d), want (1, 0)", undo, redo)
	}
	if m.CanUndo() || m.CanRedo() {
		t.Fatal("fresh session should not be able to undo or redo")
	}
}

func TestNewRejectsMissingSurface(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, surface.ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable, got %v", err)
	}
}

func TestGesturesGrowHistory(t *testing.T) {
	m := newMachine(t)
	const n = 4
	for i := 0; i < n; i++ {
		y := float64(10 + i*20)
		gesture(t, m, geom.Pt(10, y), geom.Pt(90, y))
	}
	if undo, redo := m.HistoryLen(); undo != n+1 || redo != 0 {
		t.Fatalf("HistoryLen = (%d, %d), want (%d, 0)", undo, redo, n+1)
	}
}

func TestUndoRedoRestoresPixels(t *testing.T) {
	m := newMachine(t, WithState(State{Tool: ToolBrush, Color: "#FF3B30", StrokeWidth: 10}))
	gesture(t, m, geom.Pt(10, 50), geom.Pt(90, 50))
	drawn := m.Image().RGBAAt(50, 50)
	if drawn.A == 0 {
		t.Fatal("expected stroke pixel")
	}

	if !m.Undo() {
		t.Fatal("Undo reported no change")
	}
	if a := alphaAt(m, 50, 50); a != 0 {
		t.Fatalf("expected blank pixel after undo, alpha %d", a)
	}
	if !m.CanRedo() || m.CanUndo() {
		t.Fatal("unexpected undo/redo availability after undo")
	}

	if !m.Redo() {
		t.Fatal("Redo reported no change")
	}
	if got := m.Image().RGBAAt(50, 50); got != drawn {
		t.Fatalf("redo restored %+v, want %+v", got, drawn)
	}
}

func TestUndoRedoRestoresEveryPixel(t *testing.T) {
	m := newMachine(t, WithState(State{Tool: ToolBrush, Color: "#5856D6", StrokeWidth: 7}))
	gesture(t, m, geom.Pt(3, 11), geom.Pt(47, 29), geom.Pt(97, 83))
	m.SetTool(ToolCircle)
	m.SetColor("#FF9500")
	gesture(t, m, geom.Pt(40, 60), geom.Pt(61, 64))
	before := m.Image()

	m.Undo()
	m.Redo()
	if err := m.Wait(); err != nil {
		t.Fatal(err)
	}
	if after := m.Image(); !bytes.Equal(after.Pix, before.Pix) {
		t.Fatal("undo then redo changed the raster")
	}
}

func TestQueuedRestoresApplyInOrder(t *testing.T) {
	m := newMachine(t, WithState(State{Tool: ToolBrush, Color: "#34C759", StrokeWidth: 9}))
	gesture(t, m, geom.Pt(10, 20), geom.Pt(90, 20))
	first := m.Image()
	gesture(t, m, geom.Pt(10, 50), geom.Pt(90, 50))
	gesture(t, m, geom.Pt(10, 80), geom.Pt(90, 80))

	m.Undo()
	m.Undo()
	m.Redo()
	m.Undo()
	if err := m.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := m.Image(); !bytes.Equal(got.Pix, first.Pix) {
		t.Fatal("raster does not match the first stroke after queued restores")
	}
	if undo, redo := m.HistoryLen(); undo != 2 || redo != 2 {
		t.Fatalf("HistoryLen = (%d, %d), want (2, 2)", undo, redo)
	}
}

func TestUndoDuringGestureCommitsItFirst(t *testing.T) {
	m := newMachine(t)
	m.SetStrokeWidth(8)
	gesture(t, m, geom.Pt(10, 20), geom.Pt(90, 20))
	committed := m.Image()

	m.SetTool(ToolLine)
	_ = m.GestureStart(At(10, 70))
	_ = m.GestureMove(At(90, 70))
	if !m.Undo() {
		t.Fatal("Undo reported no change")
	}
	if m.State().GestureActive {
		t.Fatal("gesture still active after Undo")
	}
	if err := m.GestureMove(At(50, 10)); err != nil {
		t.Fatal(err)
	}
	if got := m.Image(); !bytes.Equal(got.Pix, committed.Pix) {
		t.Fatal("raster differs from the committed stroke")
	}
	if undo, redo := m.HistoryLen(); undo != 2 || redo != 1 {
		t.Fatalf("HistoryLen = (%d, %d), want (2, 1)", undo, redo)
	}
}

func TestRedoDuringGestureDiscardsRedo(t *testing.T) {
	m := newMachine(t)
	gesture(t, m, geom.Pt(10, 20), geom.Pt(90, 20))
	m.Undo()
	_ = m.GestureStart(At(10, 60))
	_ = m.GestureMove(At(90, 60))
	if m.Redo() {
		t.Fatal("Redo after a committed gesture should be a no-op")
	}
	if a := alphaAt(m, 50, 60); a == 0 {
		t.Fatal("expected the committed stroke")
	}
	if a := alphaAt(m, 50, 20); a != 0 {
		t.Fatalf("undone stroke reappeared, alpha %d", a)
	}
}

func TestClearDuringShapeGesture(t *testing.T) {
	m := newMachine(t)
	script := `
width 10
start 10 50
move 90 50
end
tool line
start 10 10
clear
move 20 10
end
`
	if err := RunScript(m, strings.NewReader(script)); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if a := alphaAt(m, 50, 50); a != 0 {
		t.Fatalf("pre-clear stroke came back, alpha %d", a)
	}
	if a := alphaAt(m, 15, 10); a != 0 {
		t.Fatalf("move after clear painted, alpha %d", a)
	}
	if undo, redo := m.HistoryLen(); undo != 0 || redo != 0 {
		t.Fatalf("HistoryLen = (%d, %d), want (0, 0)", undo, redo)
	}
}

func TestUndoAndRedoNoops(t *testing.T) {
	m := newMachine(t)
	if m.Undo() {
		t.Fatal("Undo with only the blank entry should be a no-op")
	}
	gesture(t, m, geom.Pt(10, 10), geom.Pt(20, 20))
	if m.Redo() {
		t.Fatal("Redo with empty redo stack should be a no-op")
	}
	if undo, redo := m.HistoryLen(); undo != 2 || redo != 0 {
		t.Fatalf("HistoryLen = (%d, %d), want (2, 0)", undo, redo)
	}
}

func TestGestureClearsRedo(t *testing.T) {
	m := newMachine(t)
	gesture(t, m, geom.Pt(10, 10), geom.Pt(90, 10))
	gesture(t, m, geom.Pt(10, 30), geom.Pt(90, 30))
	m.Undo()
	if !m.CanRedo() {
		t.Fatal("expected redo after undo")
	}
	gesture(t, m, geom.Pt(10, 60), geom.Pt(90, 60))
	if m.CanRedo() {
		t.Fatal("new gesture should discard redo history")
	}
	if a := alphaAt(m, 50, 30); a != 0 {
		t.Fatalf("undone stroke reappeared, alpha %d", a)
	}
}

func TestSetColor(t *testing.T) {
	m := newMachine(t)
	if err := m.SetColor("#1a2b3C"); err != nil {
		t.Fatalf("SetColor: %v", err)
	}
	for _, bad := range []string{"#12", "blue", "1a2b3c", "#1a2b3c0", ""} {
		err := m.SetColor(bad)
		if !errors.Is(err, ErrInvalidColor) {
			t.Errorf("SetColor(%q) = %v, want ErrInvalidColor", bad, err)
		}
	}
	if got := m.State().Color; got != "#1a2b3C" {
		t.Fatalf("color = %q, want #1a2b3C", got)
	}
}

func TestSetStrokeWidthClamps(t *testing.T) {
	m := newMachine(t)
	tests := []struct{ in, want int }{{0, 1}, {-3, 1}, {1, 1}, {25, 25}, {50, 50}, {99, 50}}
	for _, tt := range tests {
		if got := m.SetStrokeWidth(tt.in); got != tt.want {
			t.Errorf("SetStrokeWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIdleMoveAndEndIgnored(t *testing.T) {
	m := newMachine(t)
	if err := m.GestureMove(At(50, 50)); err != nil {
		t.Fatalf("GestureMove: %v", err)
	}
	if err := m.GestureEnd(); err != nil {
		t.Fatalf("GestureEnd: %v", err)
	}
	if undo, _ := m.HistoryLen(); undo != 1 {
		t.Fatalf("idle events changed history: %d", undo)
	}
	if a := alphaAt(m, 50, 50); a != 0 {
		t.Fatalf("idle move painted, alpha %d", a)
	}
}

func TestShapePreviewDoesNotAccumulate(t *testing.T) {
	m := newMachine(t)
	m.SetTool(ToolLine)
	gesture(t, m, geom.Pt(10, 10), geom.Pt(90, 10), geom.Pt(10, 90))
	if a := alphaAt(m, 50, 10); a != 0 {
		t.Fatalf("earlier preview left pixels behind, alpha %d", a)
	}
	if a := alphaAt(m, 10, 50); a == 0 {
		t.Fatal("expected final line to be drawn")
	}
	if undo, _ := m.HistoryLen(); undo != 2 {
		t.Fatalf("shape gesture should add one entry, got %d", undo)
	}
}

func TestCircleUsesDistanceAsRadius(t *testing.T) {
	m := newMachine(t)
	m.SetTool(ToolCircle)
	m.SetStrokeWidth(4)
	gesture(t, m, geom.Pt(50, 50), geom.Pt(68, 74))
	if a := alphaAt(m, 80, 50); a == 0 {
		t.Fatal("expected circle outline at radius 30")
	}
	if a := alphaAt(m, 50, 50); a != 0 {
		t.Fatalf("circle centre should stay blank, alpha %d", a)
	}
}

func TestRectangleSignedSpan(t *testing.T) {
	m := newMachine(t)
	m.SetTool(ToolRectangle)
	m.SetStrokeWidth(4)
	gesture(t, m, geom.Pt(60, 60), geom.Pt(20, 30))
	if a := alphaAt(m, 20, 45); a == 0 {
		t.Fatal("expected left edge at x=20")
	}
	if a := alphaAt(m, 40, 30); a == 0 {
		t.Fatal("expected top edge at y=30")
	}
	if a := alphaAt(m, 40, 45); a != 0 {
		t.Fatalf("rectangle interior should stay blank, alpha %d", a)
	}
}

func TestEraserRemovesPixels(t *testing.T) {
	m := newMachine(t)
	m.SetStrokeWidth(10)
	gesture(t, m, geom.Pt(10, 50), geom.Pt(90, 50))
	m.SetTool(ToolEraser)
	m.SetStrokeWidth(20)
	gesture(t, m, geom.Pt(50, 20), geom.Pt(50, 80))
	if a := alphaAt(m, 50, 50); a != 0 {
		t.Fatalf("eraser left alpha %d", a)
	}
	if a := alphaAt(m, 15, 50); a == 0 {
		t.Fatal("eraser removed pixels outside its path")
	}
	m.SetTool(ToolBrush)
	gesture(t, m, geom.Pt(10, 80), geom.Pt(90, 80))
	if a := alphaAt(m, 50, 80); a == 0 {
		t.Fatal("brush after eraser should paint normally")
	}
}

func TestClearThenUndoIsNoop(t *testing.T) {
	m := newMachine(t)
	gesture(t, m, geom.Pt(10, 50), geom.Pt(90, 50))
	m.Clear()
	if a := alphaAt(m, 50, 50); a != 0 {
		t.Fatalf("Clear left alpha %d", a)
	}
	if undo, redo := m.HistoryLen(); undo != 0 || redo != 0 {
		t.Fatalf("HistoryLen after clear = (%d, %d)", undo, redo)
	}
	if m.Undo() || m.CanUndo() {
		t.Fatal("Undo after Clear should be a no-op")
	}

	gesture(t, m, geom.Pt(10, 20), geom.Pt(90, 20))
	if m.CanUndo() {
		t.Fatal("one gesture after Clear should not be undoable")
	}
	gesture(t, m, geom.Pt(10, 70), geom.Pt(90, 70))
	if !m.CanUndo() {
		t.Fatal("second gesture after Clear should be undoable")
	}
}

func TestViewportMapping(t *testing.T) {
	m := newMachine(t, WithViewport(geom.Rect{Left: 100, Top: 100, Width: 50, Height: 50}))
	m.SetStrokeWidth(6)
	gesture(t, m, geom.Pt(100, 125), geom.Pt(150, 125))
	if a := alphaAt(m, 50, 50); a == 0 {
		t.Fatal("expected mapped stroke through the surface centre")
	}
	if a := alphaAt(m, 50, 25); a != 0 {
		t.Fatalf("unexpected pixel off the mapped line, alpha %d", a)
	}
}

func TestSetViewport(t *testing.T) {
	m := newMachine(t)
	if got := m.Viewport(); got != (geom.Rect{Width: 100, Height: 100}) {
		t.Fatalf("default viewport = %+v", got)
	}
	vp := geom.Rect{Left: 10, Top: 20, Width: 200, Height: 200}
	m.SetViewport(vp)
	if got := m.Viewport(); got != vp {
		t.Fatalf("Viewport() = %+v, want %+v", got, vp)
	}
	m.SetStrokeWidth(4)
	gesture(t, m, geom.Pt(10, 120), geom.Pt(210, 120))
	if a := alphaAt(m, 50, 50); a == 0 {
		t.Fatal("expected the scaled stroke through the surface centre")
	}
}

func TestTouchUsesFirstTouch(t *testing.T) {
	m := newMachine(t)
	m.SetStrokeWidth(6)
	touch := func(x, y float64) PointerEvent {
		return PointerEvent{Client: geom.Pt(0, 0), Touches: []geom.Point{geom.Pt(x, y), geom.Pt(5, 5)}}
	}
	if err := m.GestureStart(touch(10, 70)); err != nil {
		t.Fatal(err)
	}
	if err := m.GestureMove(touch(90, 70)); err != nil {
		t.Fatal(err)
	}
	if err := m.GestureEnd(); err != nil {
		t.Fatal(err)
	}
	if a := alphaAt(m, 50, 70); a == 0 {
		t.Fatal("expected stroke from the first touch point")
	}
}

func TestStartWhileActiveCommitsPrevious(t *testing.T) {
	m := newMachine(t)
	_ = m.GestureStart(At(10, 10))
	_ = m.GestureMove(At(90, 10))
	gesture(t, m, geom.Pt(10, 90), geom.Pt(90, 90))
	if undo, _ := m.HistoryLen(); undo != 3 {
		t.Fatalf("HistoryLen = %d, want 3", undo)
	}
}

func TestHistoryLimit(t *testing.T) {
	m := newMachine(t, WithHistoryLimit(3))
	for i := 0; i < 5; i++ {
		gesture(t, m, geom.Pt(10, float64(10+i*10)), geom.Pt(90, float64(10+i*10)))
	}
	if undo, _ := m.HistoryLen(); undo != 3 {
		t.Fatalf("HistoryLen = %d, want 3", undo)
	}
	m.Undo()
	m.Undo()
	if m.Undo() {
		t.Fatal("Undo should stop at the oldest retained entry")
	}
	if a := alphaAt(m, 50, 30); a == 0 {
		t.Fatal("oldest retained entry should still contain the third stroke")
	}
}

func TestChangeListener(t *testing.T) {
	var calls atomic.Int32
	m := newMachine(t, WithChangeListener(func() { calls.Add(1) }))
	gesture(t, m, geom.Pt(10, 10), geom.Pt(50, 50))
	m.Undo()
	if err := m.Wait(); err != nil {
		t.Fatal(err)
	}
	if calls.Load() < 2 {
		t.Fatalf("listener called %d times, want at least 2", calls.Load())
	}
}

func TestExportPNG(t *testing.T) {
	m := newMachine(t)
	gesture(t, m, geom.Pt(10, 50), geom.Pt(90, 50))
	var buf bytes.Buffer
	if err := m.Export(&buf, export.PNG); err != nil {
		t.Fatalf("Export: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestRunScript(t *testing.T) {
	m := newMachine(t)
	script := `
# two strokes then undo one
width 8
color red
start 10 20
move 90 20
end
tool rect
start 20 40
move 80 80
leave
undo
`
	if err := RunScript(m, strings.NewReader(script)); err != nil {
		t.Fatalf("RunScript: %v", err)
	}
	if a := alphaAt(m, 50, 20); a == 0 {
		t.Fatal("expected first stroke")
	}
	if a := alphaAt(m, 20, 60); a != 0 {
		t.Fatalf("undone rectangle still visible, alpha %d", a)
	}
	if st := m.State(); st.Color != "#FF3B30" || st.Tool != ToolRectangle || st.StrokeWidth != 8 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestRunScriptReportsLine(t *testing.T) {
	m := newMachine(t)
	err := RunScript(m, strings.NewReader("start 1 1\ncolor blue-ish\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestRunScriptWidthBounds(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1e300", 50},
		{"-1e300", 1},
		{"12.9", 12},
		{"0.2", 1},
	}
	for _, tt := range tests {
		m := newMachine(t)
		if err := RunScript(m, strings.NewReader("width "+tt.in)); err != nil {
			t.Fatalf("width %s: %v", tt.in, err)
		}
		if got := m.State().StrokeWidth; got != tt.want {
			t.Errorf("width %s = %d, want %d", tt.in, got, tt.want)
		}
	}
	for _, bad := range []string{"width NaN", "width Inf", "width 1e400", "start NaN 3"} {
		m := newMachine(t)
		if err := RunScript(m, strings.NewReader(bad)); err == nil {
			t.Errorf("%q: expected error", bad)
		}
		if got := m.State().StrokeWidth; got != DefaultStrokeWidth {
			t.Errorf("%q changed width to %d", bad, got)
		}
	}
}
