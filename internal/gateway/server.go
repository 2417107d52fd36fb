package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	orchestration "github.com/koscakluka/ema-relay/core"
	"github.com/koscakluka/ema-relay/core/events"
)

const (
	DefaultMaxFrameBytes = 10 << 20

	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultQueueDepth = 16
)

// EventHandler handles a single decoded client event.
type EventHandler interface {
	Handle(ctx context.Context, event events.Event) (orchestration.Reply, error)
}

// Server upgrades HTTP requests to websocket connections and runs every
// inbound frame through the EventHandler. Frames from one connection are
// handled in arrival order; connections are independent of each other.
type Server struct {
	handler EventHandler

	upgrader      websocket.Upgrader
	maxFrameBytes int64
	writeWait     time.Duration
	pongWait      time.Duration
	queueDepth    int

	logger *slog.Logger

	mu     sync.Mutex
	conns  map[*connection]struct{}
	closed bool
	wg     sync.WaitGroup
}

type ServerOption func(*Server)

func WithMaxFrameBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxFrameBytes = n
		}
	}
}

// WithPongWait sets how long a connection may stay silent before it is
// dropped. Pings are sent at nine tenths of this interval.
func WithPongWait(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.pongWait = d
		}
	}
}

func WithWriteWait(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.writeWait = d
		}
	}
}

func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewServer(handler EventHandler, opts ...ServerOption) *Server {
	s := &Server{
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		maxFrameBytes: DefaultMaxFrameBytes,
		writeWait:     defaultWriteWait,
		pongWait:      defaultPongWait,
		queueDepth:    defaultQueueDepth,
		logger:        logger,
		conns:         map[*connection]struct{}{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error to the client.
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := newConnection(s, ws)
	if !s.track(c) {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.untrack(c)

	s.logger.Info("client connected", "connection", c.id, "remote", r.RemoteAddr)
	c.serve(context.WithoutCancel(r.Context()))
	s.logger.Info("client disconnected", "connection", c.id)
}

// Connections returns the number of open websocket connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown closes every open connection, which cancels the frames they are
// handling, and waits until their goroutines exit or ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	conns := make([]*connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) track(c *connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *connection) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}
