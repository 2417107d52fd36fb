package llms

import (
	"time"

	"github.com/google/uuid"
)

// TurnRole describes who authored a turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is a single message in a room's conversation. Turns are immutable
// once created and ordered by creation.
type Turn struct {
	ID      string
	Role    TurnRole
	Content string

	CreatedAt time.Time
}

func NewUserTurn(content string) Turn { return newTurn(TurnRoleUser, content) }

func NewAssistantTurn(content string) Turn { return newTurn(TurnRoleAssistant, content) }

func newTurn(role TurnRole, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Response is a single response from an LLM
type Response struct {
	Content string
}
