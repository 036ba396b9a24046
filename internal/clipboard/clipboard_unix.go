//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"fmt"

	"golang.design/x/clipboard"
)

// native goes through the platform clipboard library. Each write there
// replaces every earlier format, so an offer carrying both keeps the image.
type native struct{}

func newBackend() (backend, error) {
	if !haveDisplay() {
		return nil, errNoDisplay
	}
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("clipboard init: %w", err)
	}
	return native{}, nil
}

func (native) publish(o Offer) error {
	if len(o.PNG) > 0 {
		clipboard.Write(clipboard.FmtImage, o.PNG)
		return nil
	}
	clipboard.Write(clipboard.FmtText, []byte(o.Text))
	return nil
}

func (native) readText() (string, error) {
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return "", errNoText
	}
	return string(data), nil
}
