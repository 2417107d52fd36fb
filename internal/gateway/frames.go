package gateway

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	orchestration "github.com/koscakluka/ema-relay/core"
	"github.com/koscakluka/ema-relay/core/events"
)

const (
	FrameTypeSpeech      = "speech"
	FrameTypeTextMessage = "text_message"
	FrameTypeAIResponse  = "ai_response"
	FrameTypeError       = "error"

	// DefaultRoom is used for text messages that do not name a room.
	DefaultRoom = "default-room"
)

const (
	MessageAudioUnintelligible = "Could not understand audio"
	MessageSpeechError         = "Error processing speech"
	MessageTextError           = "Error processing message"
	MessageMalformedFrame      = "Failed to process message"
)

var errMalformedFrame = errors.New("malformed frame")

// InboundFrame is a message sent by a client.
type InboundFrame struct {
	Type     string  `json:"type" jsonschema:"enum=speech,enum=text_message,description=Kind of user input"`
	RoomName *string `json:"roomName,omitempty" jsonschema:"description=Room the message belongs to. Required for speech and defaults to default-room for text_message"`
	Audio    *string `json:"audio,omitempty" jsonschema:"description=Base64 encoded recording. Required for speech"`
	Message  *string `json:"message,omitempty" jsonschema:"description=Typed text. Required for text_message and may be empty"`
}

// ResponseFrame carries the transcript and the generated reply.
type ResponseFrame struct {
	Type     string `json:"type" jsonschema:"enum=ai_response"`
	UserText string `json:"userText"`
	AIText   string `json:"aiText"`
}

// ErrorFrame reports a failure for a single inbound message.
type ErrorFrame struct {
	Type    string `json:"type" jsonschema:"enum=error"`
	Message string `json:"message" jsonschema:"enum=Could not understand audio,enum=Error processing speech,enum=Error processing message,enum=Failed to process message"`
}

func newResponseFrame(reply orchestration.Reply) ResponseFrame {
	return ResponseFrame{Type: FrameTypeAIResponse, UserText: reply.UserText, AIText: reply.AssistantText}
}

func newErrorFrame(message string) ErrorFrame {
	return ErrorFrame{Type: FrameTypeError, Message: message}
}

// decodeFrame turns a raw client message into an orchestrator event.
func decodeFrame(data []byte) (events.Event, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedFrame, err)
	}

	switch frame.Type {
	case FrameTypeSpeech:
		if frame.RoomName == nil || *frame.RoomName == "" {
			return nil, fmt.Errorf("%w: speech without roomName", errMalformedFrame)
		}
		if frame.Audio == nil || *frame.Audio == "" {
			return nil, fmt.Errorf("%w: speech without audio", errMalformedFrame)
		}

		audio, err := base64.StdEncoding.DecodeString(*frame.Audio)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid audio encoding: %w", errMalformedFrame, err)
		}
		return events.NewSpeechEvent(*frame.RoomName, audio), nil

	case FrameTypeTextMessage:
		if frame.Message == nil {
			return nil, fmt.Errorf("%w: text_message without message", errMalformedFrame)
		}

		room := DefaultRoom
		if frame.RoomName != nil && *frame.RoomName != "" {
			room = *frame.RoomName
		}
		return events.NewTextEvent(room, *frame.Message), nil

	default:
		return nil, fmt.Errorf("%w: unknown type %q", errMalformedFrame, frame.Type)
	}
}

// errorMessage picks the client facing message for a failed event.
func errorMessage(event events.Event, err error) string {
	switch {
	case errors.Is(err, orchestration.ErrAudioUnintelligible):
		return MessageAudioUnintelligible
	case errors.Is(err, orchestration.ErrSpeechBackend):
		return MessageSpeechError
	case errors.Is(err, orchestration.ErrMalformedEvent), errors.Is(err, errMalformedFrame):
		return MessageMalformedFrame
	}

	if _, ok := event.(events.SpeechEvent); ok {
		return MessageSpeechError
	}
	return MessageTextError
}
