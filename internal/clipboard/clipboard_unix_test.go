//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"image"
	"sync"
	"testing"
)

func resetInit(t *testing.T) {
	t.Helper()
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	initOnce = sync.Once{}
	initErr = nil
	active = nil
	t.Cleanup(func() {
		initOnce = sync.Once{}
		initErr = nil
		active = nil
	})
}

func TestEnsureInitWithoutDisplay(t *testing.T) {
	resetInit(t)

	err := WriteText("hello world")
	if !errors.Is(err, errNoDisplay) {
		t.Fatalf("expected errNoDisplay, got %v", err)
	}
}

func TestDrawingOpsWithoutDisplay(t *testing.T) {
	resetInit(t)

	if err := WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, errNoDisplay) {
		t.Fatalf("WriteImage: expected errNoDisplay, got %v", err)
	}
	if err := CopyColor("#ff0000"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("CopyColor: expected errNoDisplay, got %v", err)
	}
	if err := CopyDrawing(image.NewRGBA(image.Rect(0, 0, 1, 1)), "#ff0000"); !errors.Is(err, errNoDisplay) {
		t.Fatalf("CopyDrawing: expected errNoDisplay, got %v", err)
	}
	if _, err := PasteColor(); !errors.Is(err, errNoDisplay) {
		t.Fatalf("PasteColor: expected errNoDisplay, got %v", err)
	}
}
