package orchestration

import (
	"context"
	"log/slog"
	"time"

	"github.com/koscakluka/ema-relay/core/conversations"
	"github.com/koscakluka/ema-relay/core/llms"
	"github.com/koscakluka/ema-relay/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, opts ...speechtotext.TranscriptionOption) (string, error)
}

// WithSpeechToTextClient sets the client used to transcribe speech events.
// opts are passed to every Transcribe call.
func WithSpeechToTextClient(client SpeechToText, opts ...speechtotext.TranscriptionOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speechToText.set(client)
		o.speechToText.options = append(o.speechToText.options, opts...)
	}
}

type LLM interface {
	Prompt(ctx context.Context, prompt string, opts ...llms.PromptOption) (*llms.Response, error)
}

func WithLLM(client LLM) OrchestratorOption {
	return func(o *Orchestrator) { o.llm.set(client) }
}

// WithStore injects the conversation store. Without it every orchestrator
// gets a fresh store of its own.
func WithStore(store *conversations.Store) OrchestratorOption {
	return func(o *Orchestrator) {
		if store != nil {
			o.store = store
		}
	}
}

// WithFallbackReply sets the assistant text used when generation fails.
func WithFallbackReply(reply string) OrchestratorOption {
	return func(o *Orchestrator) {
		if reply != "" {
			o.fallbackReply = reply
		}
	}
}

func WithTranscriptionTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText.timeout = timeout }
}

func WithGenerationTimeout(timeout time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.llm.timeout = timeout }
}

// WithInstructions sets a system prompt passed along with every generation
// request.
func WithInstructions(instructions string) OrchestratorOption {
	return func(o *Orchestrator) { o.llm.instructions = instructions }
}

func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}
