package llms

import "slices"

// PromptOptions collects everything a response adapter may use besides the
// user's current message.
type PromptOptions struct {
	// Instructions is the system prompt, empty when unset.
	Instructions string
	// Turns are the prior turns of the conversation, oldest first. Whether
	// they reach the backend is up to the adapter.
	Turns []Turn
}

type PromptOption func(*PromptOptions)

func WithInstructions(instructions string) PromptOption {
	return func(o *PromptOptions) {
		o.Instructions = instructions
	}
}

func WithTurns(turns ...Turn) PromptOption {
	return func(o *PromptOptions) {
		o.Turns = slices.Clone(turns)
	}
}

func NewPromptOptions(opts ...PromptOption) PromptOptions {
	options := PromptOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
