package speechtotext

import "github.com/koscakluka/ema-relay/core/audio"

type TranscriptionOptions struct {
	Model    string
	Language string

	// EncodingInfo describes raw (headerless) audio. It is nil for
	// containerized audio such as WAV or WebM, whose format the backend
	// detects on its own.
	EncodingInfo *audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithModel(model string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Model = model
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = &encodingInfo
	}
}
