package events

const (
	// KindSpeech identifies recorded user speech awaiting transcription.
	KindSpeech Kind = "user_input.speech"
	// KindText identifies a typed user message.
	KindText Kind = "user_input.text"
)

// SpeechEvent carries decoded audio recorded by the user.
type SpeechEvent struct {
	Base
	Audio []byte
}

// NewSpeechEvent creates a speech event for room.
func NewSpeechEvent(room string, audio []byte) SpeechEvent {
	return SpeechEvent{Base: NewBase(KindSpeech, room), Audio: audio}
}

// TextEvent carries a typed user message. Text may be empty.
type TextEvent struct {
	Base
	Text string
}

// NewTextEvent creates a text event for room.
func NewTextEvent(room string, text string) TextEvent {
	return TextEvent{Base: NewBase(KindText, room), Text: text}
}
