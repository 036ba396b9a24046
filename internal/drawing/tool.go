package drawing

import (
	"fmt"
	"strings"
)

// Tool selects what a gesture draws.
type Tool int

const (
	ToolBrush Tool = iota
	ToolEraser
	ToolLine
	ToolCircle
	ToolRectangle
)

var toolNames = []string{"brush", "eraser", "line", "circle", "rectangle"}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// Freehand reports whether the tool paints along the pointer path rather than
// previewing a shape between the gesture start and the pointer.
func (t Tool) Freehand() bool { return t == ToolBrush || t == ToolEraser }

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	return []Tool{ToolBrush, ToolEraser, ToolLine, ToolCircle, ToolRectangle}
}

// ParseTool accepts a tool name, case-insensitively. "rect" is accepted for
// rectangle.
func ParseTool(s string) (Tool, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "rect" {
		return ToolRectangle, nil
	}
	for i, n := range toolNames {
		if n == name {
			return Tool(i), nil
		}
	}
	return ToolBrush, fmt.Errorf("unknown tool %q", s)
}
