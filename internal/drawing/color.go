package drawing

import (
	"errors"
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidColor is wrapped by errors for colour text that is not #RRGGBB.
var ErrInvalidColor = errors.New("invalid color")

// InvalidColorError reports the rejected text.
type InvalidColorError struct {
	Input string
}

func (e *InvalidColorError) Error() string {
	return fmt.Sprintf("%v %q: want #RRGGBB", ErrInvalidColor, e.Input)
}

func (e *InvalidColorError) Unwrap() error { return ErrInvalidColor }

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidColor reports whether s is exactly # followed by six hex digits.
func ValidColor(s string) bool { return hexColor.MatchString(s) }

// ParseColor converts #RRGGBB text into an opaque colour.
func ParseColor(s string) (color.RGBA, error) {
	if !ValidColor(s) {
		return color.RGBA{}, &InvalidColorError{Input: s}
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, &InvalidColorError{Input: s}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// FormatColor renders c as #RRGGBB, ignoring alpha.
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// PaletteColor is a named preset colour.
type PaletteColor struct {
	Name string
	Hex  string
}

var palette = []PaletteColor{
	{Name: "Black", Hex: "#000000"},
	{Name: "Blue", Hex: "#007AFF"},
	{Name: "Green", Hex: "#34C759"},
	{Name: "Red", Hex: "#FF3B30"},
	{Name: "Orange", Hex: "#FF9500"},
	{Name: "Purple", Hex: "#AF52DE"},
}

// PaletteColors returns a copy of the preset colours.
func PaletteColors() []PaletteColor {
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// LookupPalette finds a preset by name, case-insensitively.
func LookupPalette(name string) (PaletteColor, bool) {
	for _, p := range palette {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return PaletteColor{}, false
}

// ColorInput holds the state of the custom colour dialog: the colour that
// would be applied and the text the user has typed so far. Typed text that
// is not a complete #RRGGBB value is kept but does not change the selection.
type ColorInput struct {
	Selected string
	Text     string
}

// NewColorInput starts the dialog from the active colour.
func NewColorInput(current string) *ColorInput {
	return &ColorInput{Selected: current, Text: current}
}

// Pick sets both the selection and the text, as a colour wheel would.
func (c *ColorInput) Pick(hex string) {
	if !ValidColor(hex) {
		return
	}
	c.Selected = hex
	c.Text = hex
}

// Type replaces the pending text and selects it when it is a valid colour.
func (c *ColorInput) Type(text string) {
	c.Text = text
	if ValidColor(text) {
		c.Selected = text
	}
}

// Backspace removes the last typed character.
func (c *ColorInput) Backspace() {
	if c.Text == "" {
		return
	}
	c.Type(c.Text[:len(c.Text)-1])
}

// Valid reports whether the pending text is a complete colour.
func (c *ColorInput) Valid() bool { return ValidColor(c.Text) }

// Apply commits the selection to m.
func (c *ColorInput) Apply(m *Machine) error {
	return m.SetColor(c.Selected)
}

// Cancel discards edits and resets to current.
func (c *ColorInput) Cancel(current string) {
	c.Selected = current
	c.Text = current
}
