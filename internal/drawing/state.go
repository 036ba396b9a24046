package drawing

const (
	// DefaultColor is the stroke colour of a new session.
	DefaultColor = "#000000"
	// DefaultStrokeWidth is the stroke width of a new session.
	DefaultStrokeWidth = 5
	// MinStrokeWidth and MaxStrokeWidth bound the stroke width.
	MinStrokeWidth = 1
	MaxStrokeWidth = 50
)

// State is the user-visible drawing configuration of a session.
type State struct {
	Tool          Tool
	Color         string
	StrokeWidth   int
	GestureActive bool
}

// DefaultState returns the settings a new session starts with.
func DefaultState() State {
	return State{Tool: ToolBrush, Color: DefaultColor, StrokeWidth: DefaultStrokeWidth}
}

// ClampStrokeWidth limits w to the supported range.
func ClampStrokeWidth(w int) int {
	if w < MinStrokeWidth {
		return MinStrokeWidth
	}
	if w > MaxStrokeWidth {
		return MaxStrokeWidth
	}
	return w
}
