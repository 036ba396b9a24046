package web

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(WithCanvasSize(100, 80))
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) (*websocket.Conn, helloReply) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	var hello helloReply
	readUntil(t, conn, func(kind int, data []byte) bool {
		return kind == websocket.TextMessage && json.Unmarshal(data, &hello) == nil && hello.Type == "hello"
	})
	return conn, hello
}

// readUntil reads messages until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(kind int, data []byte) bool) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(kind, data) {
			return
		}
	}
}

func readState(t *testing.T, conn *websocket.Conn, match func(stateReply) bool) stateReply {
	t.Helper()
	var st stateReply
	readUntil(t, conn, func(kind int, data []byte) bool {
		if kind != websocket.TextMessage {
			return false
		}
		var got stateReply
		if json.Unmarshal(data, &got) != nil || got.Type != "state" {
			return false
		}
		st = got
		return match(got)
	})
	return st
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestIndexServed(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "TrackPad Draw") {
		t.Fatalf("index: status %d", resp.StatusCode)
	}
}

func TestHelloAndFirstFrame(t *testing.T) {
	s, ts := newTestServer(t)
	conn, hello := dial(t, ts)
	if hello.Session == "" || hello.Width != 100 || hello.Height != 80 {
		t.Fatalf("hello = %+v", hello)
	}
	readUntil(t, conn, func(kind int, data []byte) bool {
		if kind != websocket.BinaryMessage {
			return false
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("frame: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 80 {
			t.Fatalf("frame size %v", b)
		}
		return true
	})
	if n := s.Sessions(); n != 1 {
		t.Fatalf("Sessions() = %d", n)
	}
}

func TestGestureAndExport(t *testing.T) {
	_, ts := newTestServer(t)
	conn, hello := dial(t, ts)

	send(t, conn, map[string]any{"type": "color", "value": "#FF3B30"})
	readState(t, conn, func(st stateReply) bool { return st.Color == "#FF3B30" })

	rect := map[string]any{"left": 0, "top": 0, "width": 100, "height": 80}
	send(t, conn, map[string]any{"type": "start", "x": 10, "y": 10, "rect": rect})
	send(t, conn, map[string]any{"type": "move", "x": 90, "y": 10})
	send(t, conn, map[string]any{"type": "end"})
	st := readState(t, conn, func(st stateReply) bool { return st.CanUndo })
	if st.Drawing || st.CanRedo {
		t.Fatalf("state after gesture = %+v", st)
	}

	resp, err := http.Get(ts.URL + "/export?format=png&session=" + hello.Session)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "drawing_1700000000000.png") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	r, g, _, a := img.At(50, 10).RGBA()
	if a == 0 || r>>8 < 200 || g>>8 > 100 {
		t.Fatalf("stroke pixel = %v %v %v", r>>8, g>>8, a>>8)
	}

	send(t, conn, map[string]any{"type": "undo"})
	readState(t, conn, func(st stateReply) bool { return st.CanRedo && !st.CanUndo })
}

func TestSettingsAndErrors(t *testing.T) {
	_, ts := newTestServer(t)
	conn, _ := dial(t, ts)

	send(t, conn, map[string]any{"type": "tool", "value": "line"})
	readState(t, conn, func(st stateReply) bool { return st.Tool == "line" })

	send(t, conn, map[string]any{"type": "width", "width": 99})
	readState(t, conn, func(st stateReply) bool { return st.Width == 50 })

	for _, msg := range []map[string]any{
		{"type": "color", "value": "red"},
		{"type": "tool", "value": "spray"},
		{"type": "dance"},
	} {
		send(t, conn, msg)
		readUntil(t, conn, func(kind int, data []byte) bool {
			var e errorReply
			return kind == websocket.TextMessage && json.Unmarshal(data, &e) == nil && e.Type == "error" && e.Error != ""
		})
	}
	st := readState(t, conn, func(stateReply) bool { return true })
	if st.Color != "#000000" || st.Tool != "line" {
		t.Fatalf("rejected messages changed state: %+v", st)
	}
}

func TestExportErrors(t *testing.T) {
	_, ts := newTestServer(t)
	tests := []struct {
		query string
		want  int
	}{
		{"?session=nope", http.StatusNotFound},
		{"?session=nope&format=gif", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + "/export" + tt.query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("%s: status %d, want %d", tt.query, resp.StatusCode, tt.want)
		}
	}
}

func TestSessionRemovedOnClose(t *testing.T) {
	s, ts := newTestServer(t)
	conn, _ := dial(t, ts)
	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for s.Sessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOversizedMessageDropsSession(t *testing.T) {
	s, ts := newTestServer(t)
	conn, _ := dial(t, ts)
	_ = conn.WriteJSON(map[string]any{"type": "color", "value": strings.Repeat("f", 64<<10)})

	deadline := time.Now().Add(5 * time.Second)
	for s.Sessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session kept after an oversized message")
		}
		time.Sleep(10 * time.Millisecond)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
