// Package web serves the drawing surface to browsers. Each websocket
// connection gets its own drawing session; gestures arrive as JSON messages
// and the canvas is pushed back as PNG frames.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/trackpaddraw/internal/drawing"
	"github.com/example/trackpaddraw/internal/export"
	"github.com/example/trackpaddraw/internal/geom"
	"github.com/example/trackpaddraw/internal/history"
)

//go:embed static/*
var staticFiles embed.FS

// Server hands out drawing sessions over HTTP.
type Server struct {
	size  geom.Size
	limit int
	state drawing.State
	now   func() time.Time

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures a Server.
type Option func(*Server)

// WithCanvasSize sets the backing size of new sessions.
func WithCanvasSize(width, height int) Option {
	return func(s *Server) { s.size = geom.Size{Width: width, Height: height} }
}

// WithHistoryLimit bounds the undo history of each session.
func WithHistoryLimit(n int) Option { return func(s *Server) { s.limit = n } }

// WithState sets the tool, colour and width sessions start with.
func WithState(st drawing.State) Option { return func(s *Server) { s.state = st } }

// New creates a Server with the given options.
func New(opts ...Option) *Server {
	s := &Server{
		size:     geom.Size{Width: 1200, Height: 800},
		limit:    history.DefaultCapacity,
		state:    drawing.DefaultState(),
		now:      time.Now,
		sessions: map[string]*session{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		log.Fatalf("static files: %v", err)
	}
	mux.Handle("GET /", http.FileServer(http.FS(static)))
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /export", s.handleExport)
	return mux
}

// Serve accepts connections on l until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web: shutdown: %v", err)
		}
	}()
	log.Printf("web: listening on %s", l.Addr())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.closeSessions()
	return nil
}

// Sessions returns the number of connected sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) add(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Server) lookup(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.conn.Close()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: upgrade: %v", err)
		return
	}
	sess, err := newSession(conn, s.size, s.limit, s.state)
	if err != nil {
		log.Printf("web: new session: %v", err)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "surface unavailable"))
		conn.Close()
		return
	}
	s.add(sess)
	log.Printf("web: session %s connected from %s", sess.id, r.RemoteAddr)
	sess.run()
	s.remove(sess.id)
	log.Printf("web: session %s closed", sess.id)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sess, ok := s.lookup(q.Get("session"))
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(f, s.now())))
	if err := sess.m.Export(w, f); err != nil {
		log.Printf("web: export %s: %v", sess.id, err)
	}
}
