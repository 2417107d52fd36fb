package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/koscakluka/ema-relay/core/speechtotext"
)

type speechToText struct {
	// client stores the configured speech-to-text implementation.
	client SpeechToText
	// options are passed to every transcription request.
	options []speechtotext.TranscriptionOption
	// timeout bounds a single transcription, zero disables it.
	timeout time.Duration
}

func newSpeechToText(client SpeechToText) speechToText {
	return speechToText{client: client, timeout: defaultTranscriptionTimeout}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

// transcribe returns the backend's transcript. Every failure, including a
// missing client and an expired timeout, is reported as ErrSpeechBackend.
func (s *speechToText) transcribe(ctx context.Context, audio []byte) (string, error) {
	if !s.isConfigured() {
		return "", fmt.Errorf("%w: speech-to-text client not configured", ErrSpeechBackend)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	transcript, err := s.client.Transcribe(ctx, audio, s.options...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSpeechBackend, err)
	}

	return transcript, nil
}
