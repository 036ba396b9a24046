package render

import (
	"image"
	"image/color"
	"image/draw"
)

// CardShadow renders the shadow of an opaque card of the given size. Only
// the shadow is kept; the card area itself is left for the caller to fill.
// Offset is where the card's top-left corner lies in the returned image.
func CardShadow(size image.Point, opts ShadowOptions) ShadowResult {
	if size.X <= 0 || size.Y <= 0 {
		return ShadowResult{}
	}
	card := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(card, card.Bounds(), image.Opaque, image.Point{}, draw.Src)
	res := ApplyShadow(card, opts)
	if res.Image == card {
		return ShadowResult{Image: image.NewRGBA(card.Bounds())}
	}
	hole := card.Bounds().Add(res.Offset)
	draw.Draw(res.Image, hole, image.Transparent, image.Point{}, draw.Src)
	return res
}

// Checkerboard fills rect of dst with squares of the given colors.
func Checkerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	if size <= 0 {
		size = 8
	}
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

// Backdrop caches a checkerboard the size of the window.
type Backdrop struct {
	Light, Dark color.RGBA
	Size        int
	cache       *image.RGBA
}

// Draw fills dst with the cached pattern, rebuilding it when dst changes size.
func (b *Backdrop) Draw(dst *image.RGBA) {
	bounds := dst.Bounds()
	if b.cache == nil || b.cache.Bounds() != bounds {
		b.cache = image.NewRGBA(bounds)
		Checkerboard(b.cache, bounds, b.Size, b.Light, b.Dark)
	}
	draw.Draw(dst, bounds, b.cache, bounds.Min, draw.Src)
}
