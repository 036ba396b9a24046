package shell

import (
	"image"
	"image/color"
	"image/draw"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"

	"github.com/example/trackpaddraw/internal/theme"
)

var labelFace font.Face = basicfont.Face7x13
var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 28, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) Rect() image.Rectangle { return cb.Button.Rect() }

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.Invalidate()
	}
}

// Invalidate drops cached renders, for buttons whose content changes.
func (cb *CacheButton) Invalidate() { cb.cache = [3]*image.RGBA{} }

func (cb *CacheButton) Activate() { cb.Button.Activate() }

// buttonColors picks background and text colors for a state.
func buttonColors(th *theme.Theme, state ButtonState) (bg, fg color.RGBA) {
	switch state {
	case StateHover:
		return th.ButtonBackgroundHover, th.ButtonTextHover
	case StatePressed:
		return th.ButtonBackgroundPress, th.ButtonTextPress
	}
	return th.ButtonBackground, th.ButtonText
}

// LabelButton is a bordered text button.
type LabelButton struct {
	label    string
	theme    *theme.Theme
	rect     image.Rectangle
	onSelect func()
}

func (lb *LabelButton) Draw(dst *image.RGBA, state ButtonState) {
	bg, fg := buttonColors(lb.theme, state)
	draw.Draw(dst, lb.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	drawRect(dst, lb.rect, lb.theme.ButtonBorder, 1)
	w := measure(lb.label)
	x := lb.rect.Min.X + (lb.rect.Dx()-w)/2
	y := lb.rect.Min.Y + (lb.rect.Dy()+10)/2
	drawLabel(dst, x, y, lb.label, fg)
}

func (lb *LabelButton) Rect() image.Rectangle { return lb.rect }

func (lb *LabelButton) SetRect(r image.Rectangle) {
	if r != lb.rect {
		lb.rect = r
	}
}

func (lb *LabelButton) Activate() {
	if lb.onSelect != nil {
		lb.onSelect()
	}
}

// SwatchButton is a palette colour square.
type SwatchButton struct {
	hex      string
	color    color.RGBA
	theme    *theme.Theme
	rect     image.Rectangle
	onSelect func(hex string)
}

func (sb *SwatchButton) Draw(dst *image.RGBA, state ButtonState) {
	border := sb.theme.ButtonBorder
	if state == StatePressed {
		border = sb.theme.SwatchSelected
	}
	draw.Draw(dst, sb.rect, &image.Uniform{sb.color}, image.Point{}, draw.Src)
	if state == StateHover {
		draw.Draw(dst, sb.rect, &image.Uniform{color.RGBA{255, 255, 255, 80}}, image.Point{}, draw.Over)
	}
	thick := 1
	if state == StatePressed {
		thick = 3
	}
	drawRect(dst, sb.rect, border, thick)
}

func (sb *SwatchButton) Rect() image.Rectangle { return sb.rect }

func (sb *SwatchButton) SetRect(r image.Rectangle) {
	if r != sb.rect {
		sb.rect = r
	}
}

func (sb *SwatchButton) Activate() {
	if sb.onSelect != nil {
		sb.onSelect(sb.hex)
	}
}

// Shortcut is a clickable hint in the status bar. Action names a
// controller action.
type Shortcut struct {
	label    string
	action   string
	disabled bool
	rect     image.Rectangle
}

func (s *Shortcut) draw(dst *image.RGBA, th *theme.Theme, state ButtonState) {
	fg := th.StatusText
	if s.disabled {
		fg = th.DisabledText
	} else if state == StateHover {
		draw.Draw(dst, s.rect, &image.Uniform{th.ButtonBackgroundHover}, image.Point{}, draw.Src)
		fg = th.ButtonTextHover
	}
	drawLabel(dst, s.rect.Min.X+2, s.rect.Min.Y+14, s.label, fg)
}

// ColorField shows the active colour and the text typed into it. It is
// redrawn every frame, so it is not wrapped in a CacheButton.
type ColorField struct {
	theme    *theme.Theme
	rect     image.Rectangle
	text     string
	fill     color.RGBA
	editing  bool
	onSelect func()
}

func (cf *ColorField) Draw(dst *image.RGBA, state ButtonState) {
	bg, fg := cf.theme.ButtonBackground, cf.theme.ButtonText
	if state == StateHover && !cf.editing {
		bg = cf.theme.ButtonBackgroundHover
	}
	draw.Draw(dst, cf.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	chip := image.Rect(cf.rect.Min.X+4, cf.rect.Min.Y+4, cf.rect.Min.X+cf.rect.Dy()-4, cf.rect.Max.Y-4)
	draw.Draw(dst, chip, &image.Uniform{cf.fill}, image.Point{}, draw.Src)
	drawRect(dst, chip, cf.theme.ButtonBorder, 1)
	text := cf.text
	border := cf.theme.ButtonBorder
	if cf.editing {
		text += "|"
		border = cf.theme.ButtonBackgroundPress
	}
	drawLabel(dst, chip.Max.X+4, cf.rect.Min.Y+(cf.rect.Dy()+10)/2, text, fg)
	drawRect(dst, cf.rect, border, 1)
}

func (cf *ColorField) Rect() image.Rectangle { return cf.rect }

func (cf *ColorField) SetRect(r image.Rectangle) { cf.rect = r }

func (cf *ColorField) Activate() {
	if cf.onSelect != nil {
		cf.onSelect()
	}
}

func measure(text string) int {
	d := &font.Drawer{Face: labelFace}
	return d.MeasureString(text).Ceil()
}

func drawLabel(dst *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: labelFace, Dot: fixed.P(x, y)}
	d.DrawString(text)
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	u := &image.Uniform{col}
	for i := 0; i < thick; i++ {
		r := rect.Inset(i)
		if r.Empty() {
			return
		}
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	}
}
