package conversations

import (
	"fmt"
	"sync"
	"testing"

	"github.com/koscakluka/ema-relay/core/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsSameHistoryForRoom(t *testing.T) {
	store := NewStore()

	first := store.GetOrCreate("r1")
	second := store.GetOrCreate("r1")

	require.Same(t, first, second)
	assert.Empty(t, first.Turns())
	assert.Equal(t, 1, store.Len())
}

func TestGetOrCreateConcurrentCallersShareHandle(t *testing.T) {
	store := NewStore()

	const callers = 64
	handles := make([]*History, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i] = store.GetOrCreate("shared")
		}()
	}
	wg.Wait()

	for _, handle := range handles {
		require.Same(t, handles[0], handle)
	}
	assert.Equal(t, 1, store.Len())
}

func TestRegisterKeepsExistingTurns(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("r1").Append(llms.NewUserTurn("hello"), llms.NewAssistantTurn("hi"))

	history := store.Register("r1")

	assert.Equal(t, 2, history.Len())
}

func TestRegisterCreatesEmptyHistory(t *testing.T) {
	store := NewStore()

	history := store.Register("ai-room-1")

	found, ok := store.Lookup("ai-room-1")
	require.True(t, ok)
	assert.Same(t, history, found)
	assert.Zero(t, found.Len())
}

func TestLookupUnknownRoom(t *testing.T) {
	_, ok := NewStore().Lookup("missing")
	assert.False(t, ok)
}

func TestRoomsAreSorted(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("b")
	store.GetOrCreate("a")
	store.GetOrCreate("c")

	assert.Equal(t, []string{"a", "b", "c"}, store.Rooms())
}

func TestTurnsReturnsCopy(t *testing.T) {
	history := NewStore().GetOrCreate("r1")
	history.Append(llms.NewUserTurn("hello"))

	turns := history.Turns()
	turns[0].Content = "changed"

	assert.Equal(t, "hello", history.Turns()[0].Content)
}

func TestConcurrentAppendsKeepPairsTogether(t *testing.T) {
	history := NewStore().GetOrCreate("r1")

	const writers = 50
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			history.Append(
				llms.NewUserTurn(fmt.Sprintf("user-%d", i)),
				llms.NewAssistantTurn(fmt.Sprintf("assistant-%d", i)),
			)
		}()
	}
	wg.Wait()

	turns := history.Turns()
	require.Len(t, turns, 2*writers)
	for i := 0; i < len(turns); i += 2 {
		user, assistant := turns[i], turns[i+1]
		require.Equal(t, llms.TurnRoleUser, user.Role)
		require.Equal(t, llms.TurnRoleAssistant, assistant.Role)

		var n int
		_, err := fmt.Sscanf(user.Content, "user-%d", &n)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("assistant-%d", n), assistant.Content)
	}
}
