package chatui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-relay/internal/relayclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type relayStub struct {
	room     string
	texts    []string
	speech   [][]byte
	messages chan relayclient.Message
	err      error
}

func newRelayStub(room string) *relayStub {
	return &relayStub{room: room, messages: make(chan relayclient.Message, 4)}
}

func (r *relayStub) Room() string { return r.room }
func (r *relayStub) SendText(text string) error {
	r.texts = append(r.texts, text)
	return nil
}
func (r *relayStub) SendSpeech(audio []byte) error {
	r.speech = append(r.speech, audio)
	return nil
}
func (r *relayStub) Messages() <-chan relayclient.Message { return r.messages }
func (r *relayStub) Err() error                           { return r.err }

type recorderStub struct {
	started int
	audio   []byte
	err     error
}

func (r *recorderStub) Start() error {
	r.started++
	return r.err
}

func (r *recorderStub) Stop() ([]byte, error) { return r.audio, nil }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestEnterSendsText(t *testing.T) {
	relay := newRelayStub("r1")
	m := New(relay, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	m = typeText(t, m, "hello")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	assert.Equal(t, []string{"hello"}, relay.texts)
	assert.Equal(t, "", m.input.Value())
	assert.Contains(t, m.View(), "hello")
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	relay := newRelayStub("")
	m := New(relay, nil)

	m = typeText(t, m, "   ")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, relay.texts)
}

func TestRelayMessagesAreShown(t *testing.T) {
	relay := newRelayStub("r1")
	m := New(relay, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})

	relay.messages <- relayclient.Message{Type: "ai_response", UserText: "hello", AIText: "hi there"}
	msg := waitForMessage(relay)()
	m, cmd := update(t, m, msg)
	require.NotNil(t, cmd, "should keep waiting for messages")

	m, _ = update(t, m, relayMessageMsg{Type: "error", Error: "Could not understand audio"})

	view := m.View()
	assert.Contains(t, view, "hi there")
	assert.Contains(t, view, "Could not understand audio")
	assert.Contains(t, view, "r1")
}

func TestLongRepliesAreWrapped(t *testing.T) {
	relay := newRelayStub("")
	m := New(relay, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 20})

	m, _ = update(t, m, relayMessageMsg{Type: "ai_response", AIText: strings.Repeat("word ", 20)})

	for _, line := range strings.Split(m.render(), "\n") {
		assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 60)
	}
	assert.Greater(t, strings.Count(m.render(), "\n"), 1)
}

func TestRelayClosed(t *testing.T) {
	relay := newRelayStub("")
	relay.err = errors.New("connection reset")
	close(relay.messages)

	m := New(relay, nil)
	m, _ = update(t, m, waitForMessage(relay)())
	assert.True(t, m.closed)
	assert.Contains(t, m.View(), "connection reset")

	m = typeText(t, m, "hello")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, relay.texts)
}

func TestCtrlRRecordsAndSendsSpeech(t *testing.T) {
	relay := newRelayStub("r1")
	recorder := &recorderStub{audio: []byte("RIFF")}
	m := New(relay, recorder)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, m.recording)
	assert.Equal(t, 1, recorder.started)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.False(t, m.recording)
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, recordedMsg{}, msg)

	m, cmd = update(t, m, msg)
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	assert.Equal(t, [][]byte{[]byte("RIFF")}, relay.speech)
	assert.Contains(t, m.View(), "voice message")
}

func TestCtrlRWithoutMicrophone(t *testing.T) {
	m := New(newRelayStub(""), nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.False(t, m.recording)
	assert.Contains(t, m.View(), "no microphone")
}
