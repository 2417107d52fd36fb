package deepgram

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-relay/core/audio"
	"github.com/koscakluka/ema-relay/core/speechtotext"
)

type fakeDeepgram struct {
	transcripts []string
	closeCode   int

	receivedBytes atomic.Int64
	query         atomic.Value
	authorization atomic.Value
}

func (f *fakeDeepgram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.query.Store(r.URL.Query().Encode())
	f.authorization.Store(r.Header.Get("Authorization"))

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType == websocket.BinaryMessage {
			f.receivedBytes.Add(int64(len(msg)))
			continue
		}
		if strings.Contains(string(msg), "CloseStream") {
			break
		}
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"interim words"}]}}`))
	for _, transcript := range f.transcripts {
		msg, _ := json.Marshal(map[string]any{
			"type":     "Results",
			"is_final": true,
			"channel": map[string]any{
				"alternatives": []map[string]any{{"transcript": transcript}},
			},
		})
		_ = conn.WriteMessage(websocket.TextMessage, msg)
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Metadata"}`))

	closeCode := f.closeCode
	if closeCode == 0 {
		closeCode = websocket.CloseNormalClosure
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(closeCode, ""), time.Now().Add(time.Second))
}

func newTestClient(t *testing.T, server *httptest.Server, opts ...ClientOption) *TranscriptionClient {
	t.Helper()

	opts = append([]ClientOption{
		WithAPIKey("test-key"),
		WithURL("ws" + strings.TrimPrefix(server.URL, "http")),
		WithChunkSize(4),
	}, opts...)
	client, err := NewTranscriptionClient(opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestTranscribeJoinsFinalTranscripts(t *testing.T) {
	fake := &fakeDeepgram{transcripts: []string{"hello", " there "}}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server)
	transcript, err := client.Transcribe(context.Background(), []byte("0123456789"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if transcript != "hello there" {
		t.Fatalf("expected joined transcript %q, got %q", "hello there", transcript)
	}
	if got := fake.receivedBytes.Load(); got != 10 {
		t.Fatalf("expected all 10 audio bytes to be sent, got %d", got)
	}
	if got := fake.authorization.Load(); got != "Token test-key" {
		t.Fatalf("expected token authorization header, got %q", got)
	}
}

func TestTranscribeReturnsEmptyTranscriptForSilence(t *testing.T) {
	server := httptest.NewServer(&fakeDeepgram{})
	defer server.Close()

	transcript, err := newTestClient(t, server).Transcribe(context.Background(), []byte{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if transcript != "" {
		t.Fatalf("expected empty transcript, got %q", transcript)
	}
}

func TestTranscribeSurfacesAbnormalClose(t *testing.T) {
	server := httptest.NewServer(&fakeDeepgram{
		transcripts: []string{"partial"},
		closeCode:   websocket.ClosePolicyViolation,
	})
	defer server.Close()

	if _, err := newTestClient(t, server).Transcribe(context.Background(), []byte{1, 2}); err == nil {
		t.Fatalf("expected error on abnormal close")
	}
}

func TestTranscribeFailsWhenDialFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := newTestClient(t, server).Transcribe(context.Background(), []byte{1}); err == nil {
		t.Fatalf("expected error when the websocket handshake is rejected")
	}
}

func TestTranscribeStopsOnContextCancel(t *testing.T) {
	hold := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-hold
	}))
	defer server.Close()
	defer close(hold)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := newTestClient(t, server).Transcribe(ctx, []byte{1, 2, 3})
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected error after context cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for transcription to stop")
	}
}

func TestTranscribeSendsEncodingForRawAudio(t *testing.T) {
	fake := &fakeDeepgram{}
	server := httptest.NewServer(fake)
	defer server.Close()

	client := newTestClient(t, server, WithDefaultOptions(speechtotext.WithModel("nova-2")))
	_, err := client.Transcribe(context.Background(), []byte{0, 0},
		speechtotext.WithEncodingInfo(audio.GetDefaultEncodingInfo()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	query, _ := fake.query.Load().(string)
	for _, expected := range []string{"encoding=linear16", "sample_rate=16000", "model=nova-2"} {
		if !strings.Contains(query, expected) {
			t.Fatalf("expected query %q to contain %q", query, expected)
		}
	}
}

func TestTranscribeRejectsUnsupportedEncoding(t *testing.T) {
	server := httptest.NewServer(&fakeDeepgram{})
	defer server.Close()

	_, err := newTestClient(t, server).Transcribe(context.Background(), []byte{0},
		speechtotext.WithEncodingInfo(audio.EncodingInfo{SampleRate: 44100, Format: audio.EncodingLinear16}))
	if err == nil {
		t.Fatalf("expected error for unsupported sample rate")
	}
}

func TestNewTranscriptionClientRequiresAPIKey(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")

	if _, err := NewTranscriptionClient(); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestTranscribeUsesConfiguredDialer(t *testing.T) {
	fake := &fakeDeepgram{transcripts: []string{"hello"}}
	server := httptest.NewServer(fake)
	defer server.Close()

	var dials atomic.Int32
	dialer := &websocket.Dialer{
		HandshakeTimeout: time.Second,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dials.Add(1)
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}

	client := newTestClient(t, server, WithDialer(dialer))
	if _, err := client.Transcribe(context.Background(), []byte{1, 2}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := dials.Load(); got != 1 {
		t.Fatalf("expected the configured dialer to be used once, got %d", got)
	}
}
