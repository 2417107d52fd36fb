package relayclient

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-relay/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoRelay answers text frames with an ai_response and speech frames with
// an error. The text "bye" drops the connection without a close frame.
func echoRelay(t *testing.T, frames chan<- map[string]any) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var frame map[string]any
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
			if frame["message"] == "bye" {
				return
			}

			reply := map[string]string{"type": gateway.FrameTypeAIResponse, "userText": "heard", "aiText": "ok"}
			if frame["type"] == gateway.FrameTypeSpeech {
				reply = map[string]string{"type": gateway.FrameTypeError, "message": gateway.MessageAudioUnintelligible}
			}
			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextMessage(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.Messages():
		require.True(t, ok, "connection closed: %v", c.Err())
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestSendTextWithoutRoom(t *testing.T) {
	frames := make(chan map[string]any, 1)
	srv := echoRelay(t, frames)

	c, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SendText("hello"))

	frame := <-frames
	assert.Equal(t, "text_message", frame["type"])
	assert.Equal(t, "hello", frame["message"])
	assert.NotContains(t, frame, "roomName")

	msg := nextMessage(t, c)
	assert.False(t, msg.IsError())
	assert.Equal(t, "ok", msg.AIText)
}

func TestSendSpeechEncodesAudio(t *testing.T) {
	frames := make(chan map[string]any, 1)
	srv := echoRelay(t, frames)

	c, err := Dial(context.Background(), wsURL(srv), WithRoom("r1"))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SendSpeech([]byte("RIFF")))

	frame := <-frames
	assert.Equal(t, "speech", frame["type"])
	assert.Equal(t, "r1", frame["roomName"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("RIFF")), frame["audio"])

	msg := nextMessage(t, c)
	assert.True(t, msg.IsError())
	assert.Equal(t, gateway.MessageAudioUnintelligible, msg.Error)
}

func TestSendSpeechRequiresRoom(t *testing.T) {
	srv := echoRelay(t, make(chan map[string]any, 1))

	c, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.SendSpeech([]byte("RIFF")))
}

func TestMessagesClosedWhenServerGoesAway(t *testing.T) {
	srv := echoRelay(t, make(chan map[string]any, 1))

	c, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SendText("bye"))

	select {
	case _, ok := <-c.Messages():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("messages channel was not closed")
	}
	assert.Error(t, c.Err())
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws")
	assert.Error(t, err)
}
