package shell

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"strings"
	"time"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/trackpaddraw/internal/clipboard"
	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/geom"
	"github.com/example/trackpaddraw/internal/notify"
)

const messageDuration = 2 * time.Second

// controller holds the window's interaction state and applies user actions
// to the drawing machine. It is owned by the event loop goroutine.
type controller struct {
	m        *drawing.Machine
	notifier *notify.Notifier
	saveDir  string
	format   export.Format

	input        *drawing.ColorInput
	editingColor bool
	confirmClear bool
	drawing      bool
	quit         bool

	message      string
	messageUntil time.Time
	now          func() time.Time

	copyImage func(image.Image, string) error
	copyText  func(string) error
	pasteText func() (string, error)

	actions        map[string]func()
	keyboardAction map[KeyShortcut]string
}

func newController(m *drawing.Machine) *controller {
	c := &controller{
		m:         m,
		format:    export.PNG,
		saveDir:   ".",
		input:     drawing.NewColorInput(m.State().Color),
		now:       time.Now,
		copyImage: clipboard.CopyDrawing,
		copyText:  clipboard.CopyColor,
		pasteText: clipboard.PasteColor,
	}
	c.registerActions()
	return c
}

func (c *controller) register(name string, keys KeyboardShortcuts, fn func()) {
	c.actions[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			c.keyboardAction[sc] = name
		}
	}
}

func (c *controller) registerActions() {
	c.actions = map[string]func(){}
	c.keyboardAction = map[KeyShortcut]string{}

	c.register("undo", shortcutList{{Rune: 'z', Modifiers: key.ModControl}, {Rune: 'z', Modifiers: key.ModMeta}}, c.undo)
	c.register("redo", shortcutList{
		{Rune: 'y', Modifiers: key.ModControl},
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
		{Rune: 'z', Modifiers: key.ModMeta | key.ModShift},
	}, c.redo)
	c.register("clear", shortcutList{{Rune: 'd', Modifiers: key.ModControl}, {Code: key.CodeDeleteForward}}, c.clear)
	c.register("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}, {Rune: 's', Modifiers: key.ModMeta}}, c.save)
	c.register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}, {Rune: 'c', Modifiers: key.ModMeta}}, c.copy)
	c.register("copycolor", shortcutList{{Rune: 'c', Modifiers: key.ModControl | key.ModShift}}, c.copyColor)
	c.register("color", shortcutList{{Rune: '#'}, {Rune: '#', Modifiers: key.ModShift}}, c.beginColorEntry)
	c.register("quit", shortcutList{{Rune: 'q'}, {Rune: 'q', Modifiers: key.ModShift}}, func() { c.quit = true })
	c.register("colordone", nil, c.commitColor)
	c.register("colorcancel", nil, c.cancelColor)
	c.register("colorpaste", nil, c.pasteColor)
	c.register("thinner", shortcutList{{Rune: '-'}, {Rune: '['}}, func() { c.adjustWidth(-1) })
	c.register("thicker", shortcutList{{Rune: '+'}, {Rune: '+', Modifiers: key.ModShift}, {Rune: '='}, {Rune: ']'}}, func() { c.adjustWidth(1) })

	toolKeys := map[rune]drawing.Tool{
		'b': drawing.ToolBrush,
		'e': drawing.ToolEraser,
		'l': drawing.ToolLine,
		'o': drawing.ToolCircle,
		'x': drawing.ToolRectangle,
	}
	for r, t := range toolKeys {
		t := t
		c.register("tool:"+t.String(), shortcutList{{Rune: r}, {Rune: r, Modifiers: key.ModShift}}, func() { c.selectTool(t) })
	}
	for i, p := range drawing.PaletteColors() {
		hex := p.Hex
		c.register("palette:"+strings.ToLower(p.Name), shortcutList{{Rune: rune('1' + i)}}, func() { c.pickColor(hex) })
	}
}

func (c *controller) trigger(action string) {
	if action != "clear" {
		c.confirmClear = false
	}
	if fn, ok := c.actions[action]; ok {
		fn()
	}
}

func (c *controller) flash(format string, args ...any) {
	c.message = fmt.Sprintf(format, args...)
	c.messageUntil = c.now().Add(messageDuration)
	log.Print(c.message)
}

func (c *controller) messageVisible() bool {
	return c.message != "" && c.now().Before(c.messageUntil)
}

func (c *controller) dismissMessage() { c.messageUntil = time.Time{} }

// handleKey processes a key press and reports whether the frame needs a repaint.
func (c *controller) handleKey(r rune, code key.Code, mods key.Modifiers) bool {
	if c.editingColor {
		return c.handleColorKey(r, code, mods)
	}
	var action string
	var ok bool
	if r > 0 {
		lower := unicode.ToLower(r)
		action, ok = c.keyboardAction[KeyShortcut{Rune: lower, Modifiers: mods}]
		if !ok {
			action, ok = c.keyboardAction[KeyShortcut{Rune: lower, Modifiers: mods &^ key.ModShift}]
		}
	}
	if !ok {
		action, ok = c.keyboardAction[KeyShortcut{Code: code, Modifiers: mods}]
	}
	if !ok {
		c.confirmClear = false
		return false
	}
	c.trigger(action)
	return true
}

func (c *controller) handleColorKey(r rune, code key.Code, mods key.Modifiers) bool {
	switch {
	case code == key.CodeReturnEnter:
		c.commitColor()
	case code == key.CodeEscape:
		c.cancelColor()
	case code == key.CodeDeleteBackspace:
		c.input.Backspace()
	case unicode.ToLower(r) == 'v' && mods&(key.ModControl|key.ModMeta) != 0:
		c.pasteColor()
	case r > 0 && mods&(key.ModControl|key.ModMeta) == 0:
		switch {
		case r == '#' && c.input.Text == "":
			c.input.Type("#")
		case isHexDigit(r) && len(c.input.Text) < 7:
			text := c.input.Text
			if text == "" {
				text = "#"
			}
			c.input.Type(text + string(r))
		}
	default:
		return false
	}
	return true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (c *controller) selectTool(t drawing.Tool) {
	c.endGesture()
	c.m.SetTool(t)
}

func (c *controller) pickColor(hex string) {
	c.input.Pick(hex)
	if err := c.input.Apply(c.m); err != nil {
		c.flash("color: %v", err)
	}
	c.editingColor = false
}

func (c *controller) beginColorEntry() {
	c.input = drawing.NewColorInput(c.m.State().Color)
	c.input.Text = "#"
	c.editingColor = true
}

func (c *controller) commitColor() {
	if !c.input.Valid() {
		c.flash("invalid color %q", c.input.Text)
		return
	}
	if err := c.input.Apply(c.m); err != nil {
		c.flash("color: %v", err)
		return
	}
	c.editingColor = false
}

func (c *controller) cancelColor() {
	c.input.Cancel(c.m.State().Color)
	c.editingColor = false
}

func (c *controller) pasteColor() {
	text, err := c.pasteText()
	if err != nil {
		c.flash("paste: %v", err)
		return
	}
	c.input.Type(text)
}

func (c *controller) adjustWidth(delta int) {
	c.m.SetStrokeWidth(c.m.State().StrokeWidth + delta)
}

func (c *controller) undo() {
	c.endGesture()
	if !c.m.Undo() {
		c.flash("nothing to undo")
	}
}

func (c *controller) redo() {
	c.endGesture()
	if !c.m.Redo() {
		c.flash("nothing to redo")
	}
}

func (c *controller) clear() {
	if !c.confirmClear {
		c.confirmClear = true
		c.flash("press again to clear the canvas")
		return
	}
	c.confirmClear = false
	c.endGesture()
	c.m.Clear()
	c.flash("canvas cleared")
}

func (c *controller) save() {
	c.endGesture()
	path, err := c.m.ExportFile(c.saveDir, c.format)
	if err != nil {
		c.flash("save failed: %v", err)
		return
	}
	c.flash("saved %s", path)
	c.notifier.Save(path)
}

func (c *controller) copy() {
	c.endGesture()
	img := export.Flatten(c.m.Image(), color.White)
	if err := c.copyImage(img, c.m.State().Color); err != nil {
		c.flash("copy failed: %v", err)
		return
	}
	c.flash("drawing copied to clipboard")
	c.notifier.Copy("drawing", img)
}

func (c *controller) copyColor() {
	hex := c.m.State().Color
	if err := c.copyText(hex); err != nil {
		c.flash("copy failed: %v", err)
		return
	}
	c.flash("copied %s", hex)
}

// pointerDown starts a gesture when p lies on the canvas.
func (c *controller) pointerDown(p image.Point, canvas image.Rectangle) bool {
	if !p.In(canvas) {
		return false
	}
	c.m.SetViewport(geom.FromImageRect(canvas))
	if err := c.m.GestureStart(drawing.At(float64(p.X), float64(p.Y))); err != nil {
		log.Printf("gesture start: %v", err)
		return false
	}
	c.drawing = true
	return true
}

// pointerMove extends the gesture, ending it when the pointer leaves the canvas.
func (c *controller) pointerMove(p image.Point, canvas image.Rectangle) bool {
	if !c.drawing {
		return false
	}
	if !p.In(canvas) {
		c.endGesture()
		return true
	}
	if err := c.m.GestureMove(drawing.At(float64(p.X), float64(p.Y))); err != nil {
		log.Printf("gesture move: %v", err)
	}
	return true
}

func (c *controller) pointerUp() bool {
	if !c.drawing {
		return false
	}
	c.endGesture()
	return true
}

func (c *controller) endGesture() {
	if !c.drawing {
		return
	}
	c.drawing = false
	if err := c.m.GestureEnd(); err != nil {
		log.Printf("gesture end: %v", err)
	}
}

// status summarises the drawing state for the status bar.
func (c *controller) status() string {
	st := c.m.State()
	undo, redo := c.m.HistoryLen()
	steps := undo - 1
	if steps < 0 {
		steps = 0
	}
	return fmt.Sprintf("%s  %s  %dpx  undo %d  redo %d", st.Tool, st.Color, st.StrokeWidth, steps, redo)
}
