package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type connection struct {
	id     string
	server *Server
	ws     *websocket.Conn
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newConnection(s *Server, ws *websocket.Conn) *connection {
	id := uuid.NewString()
	return &connection{
		id:     id,
		server: s,
		ws:     ws,
		logger: s.logger.With("connection", id),
	}
}

// serve blocks until the client goes away or the connection is closed.
// Closing cancels the frame that is being handled.
func (c *connection) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	queue := make(chan []byte, c.server.queueDepth)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.dispatch(ctx, queue)
	}()
	go func() {
		defer wg.Done()
		c.keepAlive(ctx)
	}()

	c.readLoop(queue)
	cancel()
	wg.Wait()
	c.close()
}

func (c *connection) readLoop(queue chan<- []byte) {
	defer close(queue)

	c.ws.SetReadLimit(c.server.maxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.server.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.server.pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
			case errors.Is(err, websocket.ErrReadLimit):
				c.logger.Warn("frame exceeds size limit", "limit", c.server.maxFrameBytes)
			default:
				c.logger.Debug("read failed", "error", err)
			}
			return
		}

		// Any inbound frame shows the peer is alive.
		_ = c.ws.SetReadDeadline(time.Now().Add(c.server.pongWait))
		queue <- data
	}
}

func (c *connection) dispatch(ctx context.Context, queue <-chan []byte) {
	for data := range queue {
		if ctx.Err() != nil {
			continue
		}

		frame := c.handleFrame(ctx, data)
		if err := c.writeJSON(frame); err != nil {
			c.logger.Debug("write failed", "error", err)
		}
	}
}

func (c *connection) handleFrame(ctx context.Context, data []byte) any {
	ctx, span := tracer.Start(ctx, "handle frame")
	defer span.End()
	span.SetAttributes(
		attribute.String("connection.id", c.id),
		attribute.Int("frame.size", len(data)),
	)

	event, err := decodeFrame(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed frame")
		c.logger.Info("rejected frame", "error", err)
		return newErrorFrame(MessageMalformedFrame)
	}
	span.SetAttributes(
		attribute.String("event.kind", string(event.Kind())),
		attribute.String("room", event.Room()),
	)

	reply, err := c.server.handler.Handle(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error("failed to handle event", "room", event.Room(), "kind", event.Kind(), "error", err)
		return newErrorFrame(errorMessage(event, err))
	}

	return newResponseFrame(reply)
}

func (c *connection) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(c.server.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.server.writeWait)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping failed", "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *connection) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.server.writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// closeWith sends a close frame before dropping the connection.
func (c *connection) closeWith(code int, reason string) {
	deadline := time.Now().Add(c.server.writeWait)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.close()
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		_ = c.ws.Close()
	})
}
