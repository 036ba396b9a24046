package web

import (
	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/geom"
)

// message is a client request. Type is one of start, move, end, leave,
// tool, color, width, undo, redo or clear.
type message struct {
	Type    string       `json:"type"`
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Touches []geom.Point `json:"touches,omitempty"`
	Rect    *clientRect  `json:"rect,omitempty"`
	Value   string       `json:"value,omitempty"`
	Width   int          `json:"width,omitempty"`
}

func (m message) pointer() drawing.PointerEvent {
	return drawing.PointerEvent{Client: geom.Pt(m.X, m.Y), Touches: m.Touches}
}

// clientRect is the canvas element's bounding box as reported by the browser.
type clientRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r clientRect) viewport() geom.Rect {
	return geom.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
}

type helloReply struct {
	Type    string `json:"type"`
	Session string `json:"session"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type stateReply struct {
	Type    string `json:"type"`
	Tool    string `json:"tool"`
	Color   string `json:"color"`
	Width   int    `json:"width"`
	Drawing bool   `json:"drawing"`
	CanUndo bool   `json:"canUndo"`
	CanRedo bool   `json:"canRedo"`
}

type errorReply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
