package web

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/geom"
	"github.com/example/trackpaddraw/internal/surface"
)

const writeWait = 10 * time.Second

// session is one browser tab. The read loop owns the machine's gesture
// methods; frames are encoded by a separate writer so a burst of moves only
// produces the newest frame.
type session struct {
	id   string
	conn *websocket.Conn
	m    *drawing.Machine

	writeMu sync.Mutex
	dirty   chan struct{}
	done    chan struct{}
}

func newSession(conn *websocket.Conn, size geom.Size, limit int, st drawing.State) (*session, error) {
	r, err := surface.NewRaster(size)
	if err != nil {
		return nil, err
	}
	sess := &session{
		id:    uuid.NewString(),
		conn:  conn,
		dirty: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	m, err := drawing.New(r,
		drawing.WithHistoryLimit(limit),
		drawing.WithState(st),
		drawing.WithChangeListener(sess.markDirty),
	)
	if err != nil {
		r.Close()
		return nil, err
	}
	sess.m = m
	return sess, nil
}

func (s *session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// run serves the connection until the client goes away.
func (s *session) run() {
	defer s.m.Close()
	defer s.conn.Close()

	s.conn.SetReadLimit(maxMessageSize)
	size := s.m.Size()
	if err := s.writeJSON(helloReply{Type: "hello", Session: s.id, Width: size.Width, Height: size.Height}); err != nil {
		log.Printf("web: session %s: %v", s.id, err)
		return
	}
	if err := s.sendState(); err != nil {
		log.Printf("web: session %s: %v", s.id, err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeFrames()
	}()
	s.markDirty()

	s.readLoop()
	close(s.done)
	wg.Wait()
}

func (s *session) readLoop() {
	for {
		var msg message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: session %s: read: %v", s.id, err)
			}
			return
		}
		if err := s.apply(msg); err != nil {
			log.Printf("web: session %s: %s: %v", s.id, msg.Type, err)
			if werr := s.writeJSON(errorReply{Type: "error", Error: err.Error()}); werr != nil {
				return
			}
		}
		if msg.Type != "move" {
			if err := s.sendState(); err != nil {
				return
			}
		}
	}
}

// maxMessageSize bounds a single client message. Pointer events with a
// handful of touches fit comfortably.
const maxMessageSize = 8 << 10

var errUnknownMessage = errors.New("unknown message type")

// apply performs one client message against the machine.
func (s *session) apply(msg message) error {
	switch msg.Type {
	case "start":
		if msg.Rect != nil {
			s.m.SetViewport(msg.Rect.viewport())
		}
		return s.m.GestureStart(msg.pointer())
	case "move":
		return s.m.GestureMove(msg.pointer())
	case "end", "leave":
		return s.m.GestureEnd()
	case "tool":
		t, err := drawing.ParseTool(msg.Value)
		if err != nil {
			return err
		}
		s.m.SetTool(t)
	case "color":
		return s.m.SetColor(msg.Value)
	case "width":
		s.m.SetStrokeWidth(msg.Width)
	case "undo":
		s.m.Undo()
	case "redo":
		s.m.Redo()
	case "clear":
		s.m.Clear()
	default:
		return fmt.Errorf("%w %q", errUnknownMessage, msg.Type)
	}
	return nil
}

func (s *session) sendState() error {
	st := s.m.State()
	return s.writeJSON(stateReply{
		Type:    "state",
		Tool:    st.Tool.String(),
		Color:   st.Color,
		Width:   st.StrokeWidth,
		Drawing: st.GestureActive,
		CanUndo: s.m.CanUndo(),
		CanRedo: s.m.CanRedo(),
	})
}

func (s *session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// writeFrames pushes the canvas as a PNG whenever it has changed since the
// last frame.
func (s *session) writeFrames() {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
		}
		buf.Reset()
		if err := enc.Encode(&buf, s.m.Image()); err != nil {
			log.Printf("web: session %s: encode frame: %v", s.id, err)
			continue
		}
		s.writeMu.Lock()
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := s.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}
