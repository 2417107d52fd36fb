// Package chatui is a terminal chat client for the relay.
package chatui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-relay/internal/relayclient"
	"github.com/muesli/reflow/wordwrap"
)

// Relay is the connection the UI sends frames through.
type Relay interface {
	Room() string
	SendText(text string) error
	SendSpeech(audio []byte) error
	Messages() <-chan relayclient.Message
	Err() error
}

// Recorder captures a single utterance. It may be nil when no microphone
// is available.
type Recorder interface {
	Start() error
	Stop() ([]byte, error)
}

type speaker int

const (
	speakerUser speaker = iota
	speakerAssistant
	speakerSystem
)

type entry struct {
	speaker speaker
	text    string
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	systemStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	recordingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

const (
	headerHeight = 2
	footerHeight = 3
)

type Model struct {
	relay    Relay
	recorder Recorder

	input    textinput.Model
	viewport viewport.Model
	width    int

	entries   []entry
	recording bool
	status    string
	closed    bool
}

type (
	relayMessageMsg relayclient.Message
	relayClosedMsg  struct{ err error }
	errMsg          struct{ err error }
	recordedMsg     struct{ audio []byte }
)

func New(relay Relay, recorder Recorder) Model {
	input := textinput.New()
	input.Placeholder = "Type a message"
	input.Prompt = "> "
	input.Focus()

	return Model{
		relay:    relay,
		recorder: recorder,
		input:    input,
		viewport: viewport.New(80, 20),
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForMessage(m.relay))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.closed {
				return m, nil
			}
			m.input.Reset()
			m.add(speakerUser, text)
			return m, sendText(m.relay, text)

		case tea.KeyCtrlR:
			return m.toggleRecording()
		}

	case relayMessageMsg:
		if relayclient.Message(msg).IsError() {
			m.add(speakerSystem, msg.Error)
		} else {
			m.add(speakerAssistant, msg.AIText)
		}
		return m, waitForMessage(m.relay)

	case relayClosedMsg:
		m.closed = true
		m.status = "disconnected"
		if msg.err != nil {
			m.status = fmt.Sprintf("disconnected: %v", msg.err)
		}
		return m, nil

	case recordedMsg:
		m.add(speakerUser, "(voice message)")
		return m, sendSpeech(m.relay, msg.audio)

	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	title := "relay"
	if room := m.relay.Room(); room != "" {
		title += " · " + room
	}

	status := m.status
	if m.recording {
		status = recordingStyle.Render("● recording (ctrl+r to send)")
	} else if status == "" && m.recorder != nil {
		status = "ctrl+r to record"
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n%s",
		titleStyle.Render(title),
		m.viewport.View(),
		m.input.View(),
		systemStyle.Render(status),
	)
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if m.recorder == nil {
		m.status = "no microphone available"
		return m, nil
	}
	if m.closed {
		return m, nil
	}

	if !m.recording {
		if err := m.recorder.Start(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.recording = true
		m.status = ""
		return m, nil
	}

	m.recording = false
	recorder := m.recorder
	return m, func() tea.Msg {
		audio, err := recorder.Stop()
		if err != nil {
			return errMsg{err}
		}
		return recordedMsg{audio}
	}
}

func (m *Model) add(s speaker, text string) {
	m.entries = append(m.entries, entry{speaker: s, text: text})
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.render())
	m.viewport.GotoBottom()
}

func (m Model) render() string {
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}

		var label string
		switch e.speaker {
		case speakerUser:
			label = userStyle.Render("you: ")
		case speakerAssistant:
			label = assistantStyle.Render("ai: ")
		case speakerSystem:
			label = systemStyle.Render("! ")
		}
		b.WriteString(label)
		b.WriteString(wordwrap.String(e.text, max(m.width-lipgloss.Width(label), 10)))
	}
	return b.String()
}

func waitForMessage(relay Relay) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-relay.Messages()
		if !ok {
			return relayClosedMsg{err: relay.Err()}
		}
		return relayMessageMsg(msg)
	}
}

func sendText(relay Relay, text string) tea.Cmd {
	return func() tea.Msg {
		if err := relay.SendText(text); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func sendSpeech(relay Relay, audio []byte) tea.Cmd {
	return func() tea.Msg {
		if err := relay.SendSpeech(audio); err != nil {
			return errMsg{err}
		}
		return nil
	}
}
