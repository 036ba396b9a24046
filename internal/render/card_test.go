package render

import (
	"image"
	"image/color"
	"testing"
)

func TestCardShadowLeavesCardTransparent(t *testing.T) {
	res := CardShadow(image.Pt(20, 10), DefaultShadowOptions())
	if res.Image == nil {
		t.Fatal("expected shadow image")
	}
	inside := res.Offset.Add(image.Pt(10, 5))
	if a := res.Image.RGBAAt(inside.X, inside.Y).A; a != 0 {
		t.Fatalf("card area should be transparent, alpha=%d", a)
	}
	below := res.Offset.Add(image.Pt(10, 10+3))
	if a := res.Image.RGBAAt(below.X, below.Y).A; a == 0 {
		t.Fatalf("expected shadow below the card at %v", below)
	}
}

func TestCardShadowEmptySize(t *testing.T) {
	if res := CardShadow(image.Point{}, DefaultShadowOptions()); res.Image != nil {
		t.Fatal("expected no image for empty size")
	}
}

func TestBackdropPattern(t *testing.T) {
	light := color.RGBA{255, 255, 255, 255}
	dark := color.RGBA{0, 0, 0, 255}
	b := &Backdrop{Light: light, Dark: dark, Size: 4}
	dst := image.NewRGBA(image.Rect(0, 0, 16, 16))
	b.Draw(dst)
	if dst.RGBAAt(0, 0) != light || dst.RGBAAt(4, 0) != dark || dst.RGBAAt(4, 4) != light {
		t.Fatal("unexpected checkerboard pattern")
	}
}
