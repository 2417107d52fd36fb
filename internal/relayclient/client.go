// Package relayclient talks to the relay websocket endpoint.
package relayclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-relay/internal/gateway"
	"github.com/koscakluka/ema-relay/internal/utils"
)

const writeWait = 10 * time.Second

// Message is a frame received from the relay. Error is set for error
// frames; UserText and AIText for replies.
type Message struct {
	Type     string `json:"type"`
	UserText string `json:"userText,omitempty"`
	AIText   string `json:"aiText,omitempty"`
	Error    string `json:"message,omitempty"`
}

func (m Message) IsError() bool { return m.Type == gateway.FrameTypeError }

type Client struct {
	conn *websocket.Conn
	room string

	writeMu  sync.Mutex
	messages chan Message

	errMu sync.Mutex
	err   error
}

type ClientOption func(*clientOptions)

type clientOptions struct {
	room   string
	header http.Header
	dialer *websocket.Dialer
}

// WithRoom sets the room sent with every frame. Text frames without a room
// go to the relay's default room.
func WithRoom(room string) ClientOption {
	return func(o *clientOptions) { o.room = room }
}

func WithHeader(header http.Header) ClientOption {
	return func(o *clientOptions) { o.header = header }
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(o *clientOptions) { o.dialer = dialer }
}

func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	options := clientOptions{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&options)
	}

	conn, _, err := options.dialer.DialContext(ctx, url, options.header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}

	c := &Client{
		conn:     conn,
		room:     options.room,
		messages: make(chan Message, 16),
	}
	go c.readLoop()

	return c, nil
}

func (c *Client) Room() string { return c.room }

// Messages is closed when the connection ends; Err then reports why.
func (c *Client) Messages() <-chan Message { return c.messages }

func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Client) SendText(text string) error {
	frame := gateway.InboundFrame{Type: gateway.FrameTypeTextMessage, Message: utils.Ptr(text)}
	if c.room != "" {
		frame.RoomName = utils.Ptr(c.room)
	}
	return c.send(frame)
}

// SendSpeech sends a recording; it requires a room.
func (c *Client) SendSpeech(audio []byte) error {
	if c.room == "" {
		return fmt.Errorf("speech requires a room")
	}

	return c.send(gateway.InboundFrame{
		Type:     gateway.FrameTypeSpeech,
		RoomName: utils.Ptr(c.room),
		Audio:    utils.Ptr(base64.StdEncoding.EncodeToString(audio)),
	})
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) send(frame gateway.InboundFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("failed to send %s frame: %w", frame.Type, err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.messages)

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.errMu.Lock()
				c.err = err
				c.errMu.Unlock()
			}
			return
		}
		c.messages <- msg
	}
}
