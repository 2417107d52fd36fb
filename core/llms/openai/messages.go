package openai

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-relay/core/llms"
)

type openAIMessage struct {
	Type messageType `json:"type"`

	Role    messageRole `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`
}

type messageRole string

const (
	messageRoleDeveloper messageRole = "developer"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

type messageType string

const (
	messageTypeMessage messageType = "message"
)

func toOpenAIMessages(instructions string, turns []llms.Turn) ([]openAIMessage, error) {
	messages := []openAIMessage{}
	if instructions != "" {
		messages = append(messages, openAIMessage{
			Role:    messageRoleDeveloper,
			Type:    messageTypeMessage,
			Content: instructions,
		})
	}

	if len(turns) == 0 {
		return messages, nil
	}

	history := []openAIMessage{}
	if err := copier.Copy(&history, turns); err != nil {
		return nil, fmt.Errorf("failed to convert turns: %w", err)
	}
	for i := range history {
		history[i].Type = messageTypeMessage
	}

	return append(messages, history...), nil
}
