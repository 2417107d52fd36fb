package orchestration

import "errors"

var (
	// ErrMalformedEvent is returned for events that are nil, of an unknown
	// type or missing a required field.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrAudioUnintelligible is returned when transcription succeeded but
	// recognised no speech.
	ErrAudioUnintelligible = errors.New("could not understand audio")
	// ErrSpeechBackend is returned when the transcription backend failed or
	// timed out.
	ErrSpeechBackend = errors.New("speech processing error")

	// ErrGenerationBackend marks response generation failures. Handle never
	// returns it: a failed generation is replaced by the fallback reply.
	ErrGenerationBackend = errors.New("generation backend error")
)
