package deepgram

import (
	"fmt"
	"os"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-relay/core/speechtotext"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultLanguage  = "en-US"

	// defaultChunkSize keeps individual websocket frames small enough for
	// Deepgram to start decoding while the rest is still being sent.
	defaultChunkSize = 8 * 1024
)

// TranscriptionClient transcribes complete recordings through the Deepgram
// listen websocket. Each Transcribe call uses its own connection, so a
// single client is safe for concurrent use.
type TranscriptionClient struct {
	apiKey    string
	listenURL string
	chunkSize int
	dialer    *websocket.Dialer

	defaults []speechtotext.TranscriptionOption
}

type ClientOption func(*TranscriptionClient)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *TranscriptionClient) { c.apiKey = apiKey }
}

// WithURL overrides the listen endpoint, e.g. for a self-hosted deployment.
func WithURL(listenURL string) ClientOption {
	return func(c *TranscriptionClient) { c.listenURL = listenURL }
}

func WithChunkSize(size int) ClientOption {
	return func(c *TranscriptionClient) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *TranscriptionClient) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithDefaultOptions sets transcription options applied before the
// per-call ones.
func WithDefaultOptions(opts ...speechtotext.TranscriptionOption) ClientOption {
	return func(c *TranscriptionClient) { c.defaults = append(c.defaults, opts...) }
}

func NewTranscriptionClient(opts ...ClientOption) (*TranscriptionClient, error) {
	client := &TranscriptionClient{
		listenURL: defaultListenURL,
		chunkSize: defaultChunkSize,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}
