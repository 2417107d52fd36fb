package conversations

import (
	"sync"

	"github.com/koscakluka/ema-relay/core/llms"
)

var _ HistoryView = (*History)(nil)

// History is the ordered turn history of one room. It only ever grows.
type History struct {
	room string

	mu    sync.RWMutex
	turns []llms.Turn
}

func newHistory(room string) *History {
	return &History{room: room}
}

func (h *History) Room() string { return h.room }

// Turns returns a copy of the history, oldest first.
func (h *History) Turns() []llms.Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	turns := make([]llms.Turn, len(h.turns))
	copy(turns, h.turns)
	return turns
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.turns)
}

// Append adds the turns to the end of the history as one unit; turns appended
// by concurrent callers never interleave with them.
func (h *History) Append(turns ...llms.Turn) {
	if len(turns) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, turns...)
}
