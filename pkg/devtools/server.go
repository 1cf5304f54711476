package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/loom-ui/loom/v2/internal/diag"
	"github.com/loom-ui/loom/v2/pkg/patch"
)

const (
	writeTimeout = 5 * time.Second

	// traceBuffer bounds the pending trace queue. When inspectors cannot
	// keep up, older edits are dropped rather than stalling the patcher.
	traceBuffer = 1024
)

// Server exposes runtime internals over HTTP: Prometheus metrics on
// /metrics, liveness on /healthz, and a live patch-edit stream over a
// WebSocket on /ws.
type Server struct {
	addr     string
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool

	traces chan patch.Op
	done   chan struct{}

	httpSrv *http.Server
}

// NewServer builds a devtools server listening on addr.
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The devtools server binds to localhost; inspectors connect
			// from arbitrary origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  make(map[*websocket.Conn]bool),
		traces: make(chan patch.Op, traceBuffer),
		done:   make(chan struct{}),
	}
}

// PatchTrace returns a trace function for patch.WithTrace that feeds the
// WebSocket stream. It never blocks the patcher.
func (s *Server) PatchTrace() patch.TraceFunc {
	return func(op patch.Op) {
		select {
		case s.traces <- op:
		default:
		}
	}
}

// Start runs the server. It blocks until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWS)

	go s.broadcastLoop()

	s.httpSrv = &http.Server{
		Addr:    s.addr,
		Handler: r,
	}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the broadcast loop and the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.conns = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	if s.httpSrv != nil {
		return s.httpSrv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		diag.Warnf("devtools websocket upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	// Drain the read side so close frames are processed.
	go func() {
		defer s.dropConn(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropConn(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) broadcastLoop() {
	for {
		select {
		case <-s.done:
			return
		case op := <-s.traces:
			data, err := json.Marshal(op)
			if err != nil {
				continue
			}
			s.mu.Lock()
			conns := make([]*websocket.Conn, 0, len(s.conns))
			for c := range s.conns {
				conns = append(conns, c)
			}
			s.mu.Unlock()
			for _, c := range conns {
				c.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					s.dropConn(c)
				}
			}
		}
	}
}
