package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-relay/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Transcribe sends the whole recording to Deepgram and returns the joined
// final transcript. An empty string means Deepgram recognised no speech.
func (s *TranscriptionClient) Transcribe(ctx context.Context, audio []byte, opts ...speechtotext.TranscriptionOption) (transcript string, err error) {
	ctx, span := tracer.Start(ctx, "deepgram transcribe")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(attribute.Int("request.audio_bytes", len(audio)))

	options := speechtotext.TranscriptionOptions{Model: defaultModel, Language: defaultLanguage}
	for _, opt := range s.defaults {
		opt(&options)
	}
	for _, opt := range opts {
		opt(&options)
	}

	connOptions := connectionOptions{model: options.Model, language: options.Language}
	if options.EncodingInfo != nil {
		encoding, err := toRawEncoding(*options.EncodingInfo)
		if err != nil {
			return "", fmt.Errorf("invalid encoding: %w", err)
		}
		connOptions.encoding = encoding
	}

	conn, err := s.connectWebsocket(ctx, connOptions)
	if err != nil {
		return "", fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	results := make(chan transcriptionResult, 1)
	go func() { results <- readTranscripts(conn) }()

	if err := s.sendAudio(conn, audio); err != nil {
		conn.Close()
		<-results
		return "", errors.Join(err, ctx.Err())
	}

	result := <-results
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("transcription interrupted: %w", ctxErr)
	}
	if result.err != nil {
		return "", result.err
	}

	transcript = strings.Join(result.segments, " ")
	span.SetAttributes(attribute.Int("response.segments", len(result.segments)))
	return transcript, nil
}

type connectionOptions struct {
	model    string
	language string
	encoding *rawEncoding
}

func (s *TranscriptionClient) connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(s.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenURL.Query()
	if options.encoding != nil {
		options.encoding.apply(queryParams)
	}
	queryParams.Set("model", options.model)
	if options.language != "" {
		queryParams.Set("language", options.language)
	}
	queryParams.Set("smart_format", "true")
	queryParams.Set("punctuate", "true")

	listenURL.RawQuery = queryParams.Encode()
	conn, resp, err := s.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + s.apiKey}})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open socket connection to deepgram (%s): %w", resp.Status, err)
		}
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (s *TranscriptionClient) sendAudio(conn *websocket.Conn, audio []byte) error {
	for start := 0; start < len(audio); start += s.chunkSize {
		end := min(start+s.chunkSize, len(audio))
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[start:end]); err != nil {
			return fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

type transcriptionResult struct {
	segments []string
	err      error
}

// readTranscripts collects final transcripts until Deepgram closes the
// socket after flushing everything it received.
func readTranscripts(conn *websocket.Conn) transcriptionResult {
	result := transcriptionResult{}
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				result.err = fmt.Errorf("failed to read deepgram websocket message: %w", err)
			}
			return result
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		segment, err := processMessage(msg)
		if err != nil {
			logger.Warn("Failed to process deepgram message", "error", err)
			continue
		}
		if segment != "" {
			result.segments = append(result.segments, segment)
		}
	}
}

func processMessage(msg []byte) (string, error) {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		return "", fmt.Errorf("failed to unmarshal deepgram message: %w", err)
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal deepgram results: %w", err)
		}
		if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
			return "", nil
		}
		return strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript), nil
	}

	return "", nil
}
