package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

type memoryBackend struct {
	offers []Offer
	text   string
	err    error
}

func (m *memoryBackend) publish(o Offer) error {
	if m.err != nil {
		return m.err
	}
	m.offers = append(m.offers, o)
	return nil
}

func (m *memoryBackend) readText() (string, error) { return m.text, m.err }

func useBackend(t *testing.T, b backend) {
	t.Helper()
	initOnce = sync.Once{}
	initOnce.Do(func() {})
	active, initErr = b, nil
	t.Cleanup(func() {
		initOnce = sync.Once{}
		active, initErr = nil, nil
	})
}

func TestNormalizeColor(t *testing.T) {
	tests := map[string]string{
		"#ff3b30":         "#ff3b30",
		"  FF3B30\n":      "#FF3B30",
		"#007AFF is blue": "#007AFF",
		"":                "",
		"   ":             "",
	}
	for in, want := range tests {
		if got := normalizeColor(in); got != want {
			t.Errorf("normalizeColor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCopyDrawingOffersImageAndColour(t *testing.T) {
	mem := &memoryBackend{}
	useBackend(t, mem)
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	if err := CopyDrawing(img, " #ff3b30 "); err != nil {
		t.Fatalf("CopyDrawing: %v", err)
	}
	if len(mem.offers) != 1 {
		t.Fatalf("published %d offers, want 1", len(mem.offers))
	}
	o := mem.offers[0]
	if o.Text != "#FF3B30" {
		t.Fatalf("text = %q, want #FF3B30", o.Text)
	}
	got, err := png.Decode(bytes.NewReader(o.PNG))
	if err != nil {
		t.Fatalf("decode offered PNG: %v", err)
	}
	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("offered image bounds %v", b)
	}
	if r, _, _, a := got.At(1, 1).RGBA(); r>>8 != 255 || a>>8 != 255 {
		t.Fatalf("offered pixel r=%d a=%d", r>>8, a>>8)
	}
}

func TestWriteImageAndTextOfferOneFormat(t *testing.T) {
	mem := &memoryBackend{}
	useBackend(t, mem)
	if err := WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	if err := CopyColor("#34c759"); err != nil {
		t.Fatalf("CopyColor: %v", err)
	}
	if len(mem.offers) != 2 {
		t.Fatalf("published %d offers, want 2", len(mem.offers))
	}
	if o := mem.offers[0]; len(o.PNG) == 0 || o.Text != "" {
		t.Fatalf("image offer = %d bytes, text %q", len(o.PNG), o.Text)
	}
	if o := mem.offers[1]; len(o.PNG) != 0 || o.Text != "#34C759" {
		t.Fatalf("colour offer = %d bytes, text %q", len(o.PNG), o.Text)
	}
}

func TestEmptyOfferRejected(t *testing.T) {
	mem := &memoryBackend{}
	useBackend(t, mem)
	if err := WriteText(""); !errors.Is(err, errEmptyOffer) {
		t.Fatalf("WriteText(\"\") = %v, want errEmptyOffer", err)
	}
	if err := WriteImage(nil); !errors.Is(err, errEmptyOffer) {
		t.Fatalf("WriteImage(nil) = %v, want errEmptyOffer", err)
	}
	if len(mem.offers) != 0 {
		t.Fatalf("empty offers reached the clipboard: %d", len(mem.offers))
	}
}

func TestPasteColorFromText(t *testing.T) {
	mem := &memoryBackend{text: "007aff\x00"}
	useBackend(t, mem)
	got, err := PasteColor()
	if err != nil {
		t.Fatalf("PasteColor: %v", err)
	}
	if got != "#007aff" {
		t.Fatalf("PasteColor = %q, want #007aff", got)
	}

	mem.text = "\x00"
	if _, err := ReadText(); !errors.Is(err, errNoText) {
		t.Fatalf("ReadText on NUL only = %v, want errNoText", err)
	}
}

func TestBackendErrorsPropagate(t *testing.T) {
	boom := errors.New("selection busy")
	useBackend(t, &memoryBackend{err: boom})
	if err := CopyColor("#000000"); !errors.Is(err, boom) {
		t.Fatalf("CopyColor = %v, want %v", err, boom)
	}
	if _, err := PasteColor(); !errors.Is(err, boom) {
		t.Fatalf("PasteColor = %v, want %v", err, boom)
	}
}
