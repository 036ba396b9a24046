package shell

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/trackpaddraw/internal/render"
	"github.com/example/trackpaddraw/internal/theme"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

type paintState struct {
	chromeState
	canvas       image.Rectangle
	source       func() *image.RGBA
	message      string
	messageUntil time.Time
}

// frameRenderer composes a window frame. It is only used from the paint
// goroutine, which lets it cache the backdrop and canvas shadow.
type frameRenderer struct {
	theme    *theme.Theme
	chrome   *chrome
	backdrop render.Backdrop
	shadow   render.ShadowResult
	shadowOf image.Point
}

func newFrameRenderer(th *theme.Theme, c *chrome) *frameRenderer {
	return &frameRenderer{
		theme:    th,
		chrome:   c,
		backdrop: render.Backdrop{Light: th.CheckerLight, Dark: th.CheckerDark, Size: 8},
	}
}

// render draws st into dst. It returns false when ctx was cancelled
// part way through.
func (f *frameRenderer) render(ctx context.Context, dst *image.RGBA, st paintState) bool {
	f.backdrop.Draw(dst)
	if ctx.Err() != nil {
		return false
	}

	if !st.canvas.Empty() {
		if f.shadowOf != st.canvas.Size() {
			opts := render.DefaultShadowOptions()
			opts.Color = f.theme.CanvasShadow
			f.shadow = render.CardShadow(st.canvas.Size(), opts)
			f.shadowOf = st.canvas.Size()
		}
		if f.shadow.Image != nil {
			at := st.canvas.Min.Sub(f.shadow.Offset)
			draw.Draw(dst, f.shadow.Image.Bounds().Add(at), f.shadow.Image, image.Point{}, draw.Over)
		}
		draw.Draw(dst, st.canvas, &image.Uniform{f.theme.Paper}, image.Point{}, draw.Src)
		if st.source != nil {
			if img := st.source(); img != nil {
				if ctx.Err() != nil {
					return false
				}
				xdraw.NearestNeighbor.Scale(dst, st.canvas, img, img.Bounds(), draw.Over, nil)
			}
		}
	}
	if ctx.Err() != nil {
		return false
	}

	f.chrome.draw(dst, st.chromeState)
	if ctx.Err() != nil {
		return false
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		drawMessage(dst, st.width, st.height, st.message, f.theme)
	}
	return ctx.Err() == nil
}

func drawMessage(dst *image.RGBA, width, height int, message string, th *theme.Theme) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
	wmsg := d.MeasureString(message).Ceil()
	ascent := messageFace.Metrics().Ascent.Ceil()
	descent := messageFace.Metrics().Descent.Ceil()
	px := (width - wmsg) / 2
	py := (height-ascent-descent)/2 + ascent
	rect := image.Rect(px-10, py-ascent-8, px+wmsg+10, py+descent+8)
	bg := th.ToolbarBackground
	bg.A = 235
	draw.Draw(dst, rect, &image.Uniform{premultiply(bg)}, image.Point{}, draw.Over)
	drawRect(dst, rect, th.ButtonBorder, 2)
	d.Dot = fixed.P(px, py)
	d.DrawString(message)
}

func premultiply(c color.RGBA) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(uint32(v) * uint32(c.A) / 255) }
	return color.RGBA{scale(c.R), scale(c.G), scale(c.B), c.A}
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, f *frameRenderer, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	if !f.render(ctx, b.RGBA(), st) {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
