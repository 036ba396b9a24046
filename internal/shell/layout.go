package shell

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"strings"
	"sync"

	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/theme"
)

const (
	toolbarHeight = 36
	statusHeight  = 24
	canvasMargin  = 16
	buttonHeight  = 24
	swatchSize    = 24
	itemGap       = 4
	groupGap      = 14
	colorBoxWidth = 96
	widthBoxWidth = 44
)

// fitZoom returns the largest scale at which a canvas of size fits into the
// drawing area of a window.
func fitZoom(canvas image.Point, winW, winH int) float64 {
	availW := winW - 2*canvasMargin
	availH := winH - toolbarHeight - statusHeight - 2*canvasMargin
	if canvas.X <= 0 || canvas.Y <= 0 || availW <= 0 || availH <= 0 {
		return 0
	}
	zx := float64(availW) / float64(canvas.X)
	zy := float64(availH) / float64(canvas.Y)
	return math.Min(zx, zy)
}

// canvasRect returns the on-screen rectangle of the canvas, centred in the
// drawing area and scaled to fit.
func canvasRect(canvas image.Point, winW, winH int) image.Rectangle {
	zoom := fitZoom(canvas, winW, winH)
	if zoom <= 0 {
		return image.Rectangle{}
	}
	w := int(float64(canvas.X) * zoom)
	h := int(float64(canvas.Y) * zoom)
	areaTop := toolbarHeight + canvasMargin
	areaH := winH - toolbarHeight - statusHeight - 2*canvasMargin
	x0 := (winW - w) / 2
	y0 := areaTop + (areaH-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

var toolLabels = map[drawing.Tool]string{
	drawing.ToolBrush:     "B:Brush",
	drawing.ToolEraser:    "E:Eraser",
	drawing.ToolLine:      "L:Line",
	drawing.ToolCircle:    "O:Circle",
	drawing.ToolRectangle: "X:Rect",
}

// toolbarActions connects toolbar widgets to the controller.
type toolbarActions struct {
	selectTool func(drawing.Tool)
	pickColor  func(string)
	editColor  func()
	adjust     func(int)
}

// chromeState is the part of a frame the toolbar and status bar depend on.
type chromeState struct {
	width, height int
	tool          drawing.Tool
	color         string
	strokeWidth   int
	colorText     string
	editingColor  bool
	canUndo       bool
	canRedo       bool
	status        string
}

// chrome owns the toolbar and status bar widgets. Drawing happens on the
// paint goroutine while hit testing happens on the event loop, so access
// goes through mu.
type chrome struct {
	mu    sync.Mutex
	theme *theme.Theme

	buttons   []Button
	toolOf    map[Button]drawing.Tool
	hexOf     map[Button]string
	field     *ColorField
	widthDown *CacheButton
	widthUp   *CacheButton
	widthBox  image.Rectangle
	laidOut   bool

	shortcuts []Shortcut
	hover     int
	hoverHint int
}

func newChrome(th *theme.Theme, act toolbarActions) *chrome {
	c := &chrome{
		theme:     th,
		toolOf:    map[Button]drawing.Tool{},
		hexOf:     map[Button]string{},
		hover:     -1,
		hoverHint: -1,
	}
	for _, t := range drawing.Tools() {
		t := t
		cb := &CacheButton{Button: &LabelButton{label: toolLabels[t], theme: th, onSelect: func() { act.selectTool(t) }}}
		c.buttons = append(c.buttons, cb)
		c.toolOf[cb] = t
	}
	for _, p := range drawing.PaletteColors() {
		col, err := drawing.ParseColor(p.Hex)
		if err != nil {
			continue
		}
		cb := &CacheButton{Button: &SwatchButton{hex: p.Hex, color: col, theme: th, onSelect: act.pickColor}}
		c.buttons = append(c.buttons, cb)
		c.hexOf[cb] = p.Hex
	}
	c.field = &ColorField{theme: th, onSelect: act.editColor}
	c.widthDown = &CacheButton{Button: &LabelButton{label: "-", theme: th, onSelect: func() { act.adjust(-1) }}}
	c.widthUp = &CacheButton{Button: &LabelButton{label: "+", theme: th, onSelect: func() { act.adjust(1) }}}
	c.buttons = append(c.buttons, c.field, c.widthDown, c.widthUp)
	return c
}

// layout positions the toolbar widgets left to right in groups. It runs
// once; the toolbar does not reflow with the window.
func (c *chrome) layout() {
	if c.laidOut {
		return
	}
	c.laidOut = true
	x := 8
	y := (toolbarHeight - buttonHeight) / 2
	prevGroup := ""
	for _, b := range c.buttons {
		group := "tool"
		w := buttonHeight
		switch {
		case b == Button(c.field):
			group = "color"
			w = colorBoxWidth
		case b == Button(c.widthDown) || b == Button(c.widthUp):
			group = "width"
		default:
			if _, ok := c.hexOf[b]; ok {
				group = "color"
				w = swatchSize
			} else if cb, ok := b.(*CacheButton); ok {
				if lb, ok := cb.Button.(*LabelButton); ok {
					w = measure(lb.label) + 12
				}
			}
		}
		if prevGroup != "" && group != prevGroup {
			x += groupGap - itemGap
		}
		prevGroup = group
		b.SetRect(image.Rect(x, y, x+w, y+buttonHeight))
		x += w + itemGap
		if b == Button(c.widthDown) {
			c.widthBox = image.Rect(x, y, x+widthBoxWidth, y+buttonHeight)
			x += widthBoxWidth + itemGap
		}
	}
}

// hit returns the toolbar button at p.
func (c *chrome) hit(p image.Point) (Button, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout()
	for i, b := range c.buttons {
		if p.In(b.Rect()) {
			return b, i
		}
	}
	return nil, -1
}

// hitShortcut returns the action of the status bar hint at p.
func (c *chrome) hitShortcut(p image.Point) (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sc := range c.shortcuts {
		if p.In(sc.rect) {
			if sc.disabled {
				return "", i
			}
			return sc.action, i
		}
	}
	return "", -1
}

// setHover records the widget under the pointer and reports whether it changed.
func (c *chrome) setHover(button, hint int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.hover != button || c.hoverHint != hint
	c.hover = button
	c.hoverHint = hint
	return changed
}

func (c *chrome) draw(dst *image.RGBA, st chromeState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	th := c.theme
	c.layout()

	draw.Draw(dst, image.Rect(0, 0, st.width, toolbarHeight), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	drawRect(dst, image.Rect(-1, -1, st.width+1, toolbarHeight), th.ButtonBorder, 1)

	c.field.text = st.colorText
	c.field.editing = st.editingColor
	if col, err := drawing.ParseColor(st.color); err == nil {
		c.field.fill = col
	}
	for i, b := range c.buttons {
		state := StateDefault
		if i == c.hover {
			state = StateHover
		}
		if t, ok := c.toolOf[b]; ok && t == st.tool {
			state = StatePressed
		}
		if hex, ok := c.hexOf[b]; ok && strings.EqualFold(hex, st.color) {
			state = StatePressed
		}
		b.Draw(dst, state)
	}
	label := fmt.Sprintf("%dpx", st.strokeWidth)
	drawLabel(dst, c.widthBox.Min.X+(c.widthBox.Dx()-measure(label))/2, c.widthBox.Min.Y+17, label, th.Foreground)

	c.drawStatus(dst, st)
}

func (c *chrome) drawStatus(dst *image.RGBA, st chromeState) {
	th := c.theme
	rect := image.Rect(0, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, rect, &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)

	var hints []Shortcut
	if st.editingColor {
		hints = []Shortcut{
			{label: "Enter:apply", action: "colordone"},
			{label: "Esc:cancel", action: "colorcancel"},
			{label: "^V:paste", action: "colorpaste"},
		}
	} else {
		hints = []Shortcut{
			{label: "^Z:undo", action: "undo", disabled: !st.canUndo},
			{label: "^Y:redo", action: "redo", disabled: !st.canRedo},
			{label: "^D:clear", action: "clear"},
			{label: "^C:copy", action: "copy"},
			{label: "^S:save", action: "save"},
			{label: "#:color", action: "color"},
			{label: "Q:quit", action: "quit"},
		}
	}
	x := 8
	y := st.height - statusHeight + 4
	c.shortcuts = c.shortcuts[:0]
	for i := range hints {
		sc := hints[i]
		w := measure(sc.label)
		sc.rect = image.Rect(x-2, y, x+w+2, y+18)
		state := StateDefault
		if i == c.hoverHint {
			state = StateHover
		}
		sc.draw(dst, th, state)
		c.shortcuts = append(c.shortcuts, sc)
		x = sc.rect.Max.X + 8
	}
	if st.status != "" {
		w := measure(st.status)
		sx := st.width - w - 8
		if sx > x {
			drawLabel(dst, sx, y+14, st.status, th.StatusText)
		}
	}
}
