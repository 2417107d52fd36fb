package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/koscakluka/ema-relay/core/conversations"
	"github.com/koscakluka/ema-relay/core/llms"
)

type llm struct {
	// client is the configured response generation backend.
	client LLM
	// instructions is forwarded as the system prompt when set.
	instructions string
	// timeout bounds a single generation, zero disables it.
	timeout time.Duration
}

func newLLM(client LLM) llm {
	return llm{client: client, timeout: defaultGenerationTimeout}
}

func (runtime *llm) set(client LLM) {
	if runtime == nil {
		return
	}

	runtime.client = client
}

// generate asks the backend for a reply to prompt. The room's history is
// offered to the backend; whether it is used is the backend's decision.
// Every failure is reported as ErrGenerationBackend.
func (runtime *llm) generate(ctx context.Context, prompt string, history conversations.HistoryView) (string, error) {
	if runtime == nil || runtime.client == nil {
		return "", fmt.Errorf("%w: llm not configured", ErrGenerationBackend)
	}

	if runtime.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runtime.timeout)
		defer cancel()
	}

	opts := []llms.PromptOption{}
	if history != nil {
		opts = append(opts, llms.WithTurns(history.Turns()...))
	}
	if runtime.instructions != "" {
		opts = append(opts, llms.WithInstructions(runtime.instructions))
	}

	response, err := runtime.client.Prompt(ctx, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: failed to prompt llm: %w", ErrGenerationBackend, err)
	}
	if response == nil {
		return "", fmt.Errorf("%w: llm returned no response", ErrGenerationBackend)
	}

	return response.Content, nil
}
