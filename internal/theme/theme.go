package theme

import (
	"image/color"
)

// Theme defines the color palette for the desktop window.
type Theme struct {
	Name string

	// General
	Background color.RGBA // Window area around the canvas
	Foreground color.RGBA // Main text color

	// Toolbar & status bar
	ToolbarBackground color.RGBA
	StatusBackground  color.RGBA
	StatusText        color.RGBA
	DisabledText      color.RGBA

	// Tool Buttons
	ButtonBackground      color.RGBA
	ButtonBackgroundHover color.RGBA
	ButtonBackgroundPress color.RGBA
	ButtonText            color.RGBA
	ButtonTextHover       color.RGBA
	ButtonTextPress       color.RGBA
	ButtonBorder          color.RGBA
	SwatchSelected        color.RGBA

	// Canvas
	Paper        color.RGBA // Shown behind transparent canvas pixels
	CanvasShadow color.RGBA
	CheckerLight color.RGBA
	CheckerDark  color.RGBA
}

// Default returns the hardcoded default light theme (fallback).
func Default() *Theme {
	return &Theme{
		Name:                  "Default",
		Background:            color.RGBA{229, 231, 235, 255},
		Foreground:            color.RGBA{17, 24, 39, 255},
		ToolbarBackground:     color.RGBA{243, 244, 246, 255},
		StatusBackground:      color.RGBA{243, 244, 246, 255},
		StatusText:            color.RGBA{75, 85, 99, 255},
		DisabledText:          color.RGBA{156, 163, 175, 255},
		ButtonBackground:      color.RGBA{255, 255, 255, 255},
		ButtonBackgroundHover: color.RGBA{229, 231, 235, 255},
		ButtonBackgroundPress: color.RGBA{0, 122, 255, 255},
		ButtonText:            color.RGBA{17, 24, 39, 255},
		ButtonTextHover:       color.RGBA{17, 24, 39, 255},
		ButtonTextPress:       color.RGBA{255, 255, 255, 255},
		ButtonBorder:          color.RGBA{209, 213, 219, 255},
		SwatchSelected:        color.RGBA{17, 24, 39, 255},
		Paper:                 color.RGBA{255, 255, 255, 255},
		CanvasShadow:          color.RGBA{0, 0, 0, 255},
		CheckerLight:          color.RGBA{229, 231, 235, 255},
		CheckerDark:           color.RGBA{219, 221, 225, 255},
	}
}
