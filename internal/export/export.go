// Package export encodes finished drawings for saving and download.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Format is an export file format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	PDF  Format = "pdf"
)

// JPEGQuality is the quality used for JPEG exports.
const JPEGQuality = 92

// Formats lists the supported formats, default first.
func Formats() []Format { return []Format{PNG, JPEG, PDF} }

// ParseFormat accepts a format name or file extension. The empty string
// selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "pdf":
		return PDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Filename returns drawing_<unix-millis>.<ext>.
func Filename(f Format, now time.Time) string {
	return fmt.Sprintf("drawing_%d.%s", now.UnixMilli(), f.Ext())
}

// Flatten composites img over an opaque background.
func Flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// Encode writes img in format f. PNG keeps transparency; JPEG and PDF are
// flattened onto white.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("export png: %w", err)
		}
	case JPEG:
		if err := jpeg.Encode(w, Flatten(img, color.White), &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return fmt.Errorf("export jpeg: %w", err)
		}
	case PDF:
		if err := encodePDF(w, img); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
	return nil
}

// encodePDF places the drawing on a single page sized to the image, one
// point per pixel.
func encodePDF(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Flatten(img, color.White)); err != nil {
		return err
	}
	b := img.Bounds()
	wd, ht := float64(b.Dx()), float64(b.Dy())
	// gofpdf swaps custom sizes for "L", so the page is always "P".
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	p.SetTitle("TrackPad Draw", true)
	p.SetCreator("trackpaddraw", true)
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("drawing", opts, &buf)
	p.ImageOptions("drawing", 0, 0, wd, ht, false, opts, 0, "")
	if err := p.Error(); err != nil {
		return err
	}
	return p.Output(w)
}

// Save writes img into dir under a generated name and returns the path.
func Save(dir string, img image.Image, f Format, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(f, now))
	if err := WriteFile(path, img, f); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile encodes img into path.
func WriteFile(path string, img image.Image, f Format) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(out, img, f); err != nil {
		if cerr := out.Close(); cerr != nil {
			log.Printf("error closing %q: %v", path, cerr)
		}
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
