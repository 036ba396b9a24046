// Package shell is the desktop window for a drawing session, built on the
// shiny driver.
package shell

import (
	"context"
	"image"
	"log"
	"sync"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/notify"
	"github.com/example/trackpaddraw/internal/theme"
)

// Shell holds the configuration of the drawing window.
type Shell struct {
	machine  *drawing.Machine
	theme    *theme.Theme
	notifier *notify.Notifier
	saveDir  string
	format   export.Format
	title    string

	updateCh  chan struct{}
	onClose   func()
	closeOnce sync.Once
}

// Option modifies a Shell during creation.
type Option func(*Shell)

// WithTheme sets the window colors.
func WithTheme(t *theme.Theme) Option { return func(s *Shell) { s.theme = t } }

// WithNotifier sets the desktop notifier used after save and copy.
func WithNotifier(n *notify.Notifier) Option { return func(s *Shell) { s.notifier = n } }

// WithSaveDir sets the directory exports are written to.
func WithSaveDir(dir string) Option { return func(s *Shell) { s.saveDir = dir } }

// WithFormat sets the export format used by save.
func WithFormat(f export.Format) Option { return func(s *Shell) { s.format = f } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(s *Shell) { s.title = title } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(s *Shell) { s.onClose = fn } }

// New creates a Shell for m.
func New(m *drawing.Machine, opts ...Option) *Shell {
	s := &Shell{
		machine:  m,
		theme:    theme.Default(),
		saveDir:  ".",
		format:   export.PNG,
		title:    "TrackPad Draw",
		updateCh: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	if s.theme == nil {
		s.theme = theme.Default()
	}
	return s
}

// NotifyChanged requests a repaint when the drawing changes outside the
// event loop, such as after an asynchronous undo restore. It is safe to
// call on a nil Shell.
func (s *Shell) NotifyChanged() {
	if s == nil || s.updateCh == nil {
		return
	}
	select {
	case s.updateCh <- struct{}{}:
	default:
	}
}

func (s *Shell) notifyClose() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}

func (s *Shell) newController() *controller {
	ctl := newController(s.machine)
	ctl.notifier = s.notifier
	ctl.saveDir = s.saveDir
	ctl.format = s.format
	return ctl
}

// Run executes the UI loop using shiny's driver.
func (s *Shell) Run() { driver.Main(s.Main) }

// Main runs the window on scr until it is closed or the user quits.
func (s *Shell) Main(scr screen.Screen) {
	ctl := s.newController()
	canvasSize := image.Pt(s.machine.Size().Width, s.machine.Size().Height)

	width := canvasSize.X + 2*canvasMargin
	height := canvasSize.Y + toolbarHeight + statusHeight + 2*canvasMargin
	w, err := scr.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: s.title})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()
	defer s.notifyClose()
	defer ctl.endGesture()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-s.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	ui := newChrome(s.theme, toolbarActions{
		selectTool: ctl.selectTool,
		pickColor:  ctl.pickColor,
		editColor:  ctl.beginColorEntry,
		adjust:     ctl.adjustWidth,
	})
	frames := newFrameRenderer(s.theme, ui)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, scr, w, frames, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)

	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	for {
		e := w.NextEvent()
		canvas := canvasRect(canvasSize, width, height)
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			ctl.endGesture()
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			st := s.paintState(ctl, width, height, canvas)
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case mouse.Event:
			if s.handleMouse(ctl, ui, e, canvas, height) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if ctl.handleKey(e.Rune, e.Code, e.Modifiers) {
				w.Send(paint.Event{})
			}
		}
		if ctl.quit {
			stopPaint()
			return
		}
	}
}

func (s *Shell) paintState(ctl *controller, width, height int, canvas image.Rectangle) paintState {
	st := s.machine.State()
	canUndo, canRedo := s.machine.CanUndo(), s.machine.CanRedo()
	colorText := st.Color
	if ctl.editingColor {
		colorText = ctl.input.Text
	}
	return paintState{
		chromeState: chromeState{
			width:        width,
			height:       height,
			tool:         st.Tool,
			color:        st.Color,
			strokeWidth:  st.StrokeWidth,
			colorText:    colorText,
			editingColor: ctl.editingColor,
			canUndo:      canUndo,
			canRedo:      canRedo,
			status:       ctl.status(),
		},
		canvas:       canvas,
		source:       s.machine.Image,
		message:      ctl.message,
		messageUntil: ctl.messageUntil,
	}
}

// handleMouse routes a mouse event and reports whether a repaint is needed.
func (s *Shell) handleMouse(ctl *controller, ui *chrome, e mouse.Event, canvas image.Rectangle, height int) bool {
	p := image.Pt(int(e.X), int(e.Y))
	press := e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress
	repaint := false
	if press && ctl.messageVisible() {
		ctl.dismissMessage()
		repaint = true
	}

	if ctl.drawing {
		switch {
		case e.Direction == mouse.DirNone:
			return ctl.pointerMove(p, canvas) || repaint
		case e.Direction == mouse.DirRelease && e.Button == mouse.ButtonLeft:
			return ctl.pointerUp() || repaint
		}
		return repaint
	}

	switch {
	case p.Y < toolbarHeight:
		b, idx := ui.hit(p)
		if ui.setHover(idx, -1) {
			repaint = true
		}
		if press && b != nil {
			b.Activate()
			repaint = true
		}
	case p.Y >= height-statusHeight:
		action, idx := ui.hitShortcut(p)
		if ui.setHover(-1, idx) {
			repaint = true
		}
		if press && action != "" {
			ctl.trigger(action)
			repaint = true
		}
	default:
		if ui.setHover(-1, -1) {
			repaint = true
		}
		if press && ctl.pointerDown(p, canvas) {
			repaint = true
		}
	}
	return repaint
}
