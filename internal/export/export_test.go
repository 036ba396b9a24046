package export

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sample() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.SetRGBA(x, 10, color.RGBA{R: 255, A: 255})
	}
	return img
}

func TestFilename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	tests := []struct {
		f    Format
		want string
	}{
		{PNG, "drawing_1700000000123.png"},
		{JPEG, "drawing_1700000000123.jpg"},
		{PDF, "drawing_1700000000123.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.f, now); got != tt.want {
			t.Errorf("Filename(%s) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": PNG, "PNG": PNG, ".jpg": JPEG, "jpeg": JPEG, "pdf": PDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); err == nil {
		t.Error("expected error for gif")
	}
}

func TestEncodePNGKeepsTransparency(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample(), PNG); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Fatalf("expected transparent background, alpha %d", a)
	}
	if r, _, _, a := img.At(5, 10).RGBA(); r>>8 != 255 || a>>8 != 255 {
		t.Fatalf("expected red stroke pixel")
	}
}

func TestEncodeJPEGFlattensOnWhite(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample(), JPEG); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	img, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Fatalf("expected white background, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestEncodePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample(), PDF); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:8])
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path, err := Save(dir, sample(), PNG, time.UnixMilli(42))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "drawing_42.png" {
		t.Fatalf("unexpected path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}
