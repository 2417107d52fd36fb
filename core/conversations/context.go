package conversations

import "github.com/koscakluka/ema-relay/core/llms"

// HistoryView exposes a room's conversation to response adapters without
// allowing them to change it.
type HistoryView interface {
	// Room is the identifier the history belongs to.
	Room() string

	// Past turns only. Ordering: oldest -> newest.
	Turns() []llms.Turn
}
