// Package clipboard moves drawings and colour values between the app and
// the system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
)

var (
	errEmptyOffer = errors.New("nothing to copy")
	errNoText     = errors.New("clipboard does not contain text data")
)

// Offer is one clipboard publication. Every non-empty representation is
// served from the same selection, so a paste picks the one it understands.
type Offer struct {
	PNG  []byte
	Text string
}

func (o Offer) empty() bool { return len(o.PNG) == 0 && o.Text == "" }

// backend is the platform clipboard.
type backend interface {
	publish(o Offer) error
	readText() (string, error)
}

var (
	initOnce sync.Once
	initErr  error
	active   backend
)

func open() (backend, error) {
	initOnce.Do(func() {
		active, initErr = newBackend()
	})
	return active, initErr
}

// Publish places o on the clipboard, replacing whatever was there.
func Publish(o Offer) error {
	if o.empty() {
		return errEmptyOffer
	}
	b, err := open()
	if err != nil {
		return err
	}
	o.PNG = append([]byte(nil), o.PNG...)
	return b.publish(o)
}

// WriteImage publishes img as PNG.
func WriteImage(img image.Image) error {
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return Publish(Offer{PNG: data})
}

// WriteText publishes text.
func WriteText(text string) error {
	return Publish(Offer{Text: text})
}

// CopyDrawing publishes the drawing together with the colour it was drawn
// with. Image paste targets get the PNG and text targets get #RRGGBB.
func CopyDrawing(img image.Image, hex string) error {
	data, err := encodePNG(img)
	if err != nil {
		return err
	}
	return Publish(Offer{PNG: data, Text: strings.ToUpper(strings.TrimSpace(hex))})
}

// ReadText returns the clipboard's text.
func ReadText() (string, error) {
	b, err := open()
	if err != nil {
		return "", err
	}
	text, err := b.readText()
	if err != nil {
		return "", err
	}
	// Some owners terminate STRING data with a NUL.
	text = strings.TrimRight(text, "\x00")
	if text == "" {
		return "", errNoText
	}
	return text, nil
}

// CopyColor publishes a #RRGGBB colour as text.
func CopyColor(hex string) error {
	return WriteText(strings.ToUpper(strings.TrimSpace(hex)))
}

// PasteColor reads clipboard text and returns it as a candidate colour.
// The result is not validated; callers feed it through their colour input.
func PasteColor() (string, error) {
	text, err := ReadText()
	if err != nil {
		return "", err
	}
	return normalizeColor(text), nil
}

func normalizeColor(text string) string {
	text = strings.TrimSpace(text)
	if fields := strings.Fields(text); len(fields) > 0 {
		text = fields[0]
	}
	if text != "" && !strings.HasPrefix(text, "#") {
		text = "#" + text
	}
	return text
}

func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errEmptyOffer
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode clipboard image: %w", err)
	}
	return buf.Bytes(), nil
}
