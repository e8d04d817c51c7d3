package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/chat"
)

// frameMsg drives the waiting animation while an answer is in flight.
type frameMsg time.Time

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	session   *chat.Session
	input     textinput.Model
	viewport  viewport.Model
	title     string
	summary   string
	status    string
	presets   []string
	presetIdx int
	ready     bool
}

// New creates a new chat TUI model. presets are sample questions cycled with Tab.
func New(session *chat.Session, title, summary string, presets []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter (Tab cycles examples)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		session:  session,
		input:    ti,
		viewport: vp,
		title:    title,
		summary:  summary,
		presets:  presets,
		status:   "Ready. Type a question to begin.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and animation-frame events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case frameMsg:
		if !m.session.Waiting() {
			return m, nil
		}
		done := m.session.Advance()
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		if done {
			m.status = "Ready for your next question."
			return m, nil
		}
		return m, m.frameTick()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			err := m.session.Ask(context.Background(), m.input.Value())
			switch {
			case errors.Is(err, chat.ErrEmptyQuestion):
				return m, nil
			case errors.Is(err, chat.ErrBusy):
				m.status = "Still working on the previous question..."
				return m, nil
			case err != nil:
				m.status = "Error: " + err.Error()
				return m, nil
			}
			m.input.Reset()
			m.status = "Thinking..."
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
			return m, m.frameTick()
		case "tab":
			if len(m.presets) > 0 {
				m.input.SetValue(m.presets[m.presetIdx])
				m.input.CursorEnd()
				m.presetIdx = (m.presetIdx + 1) % len(m.presets)
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout: header, transcript, input, status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	summary := summaryStyle.Render(m.summary)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) frameTick() tea.Cmd {
	return tea.Tick(m.session.Interval(), func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) renderTranscript() string {
	turns := m.session.Transcript()
	if len(turns) == 0 {
		return "No questions yet. Press Tab for an example."
	}
	w := m.viewport.Width
	if w < 20 {
		w = 20
	}
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Width(w).Render("You: " + t.Question))
		b.WriteString("\n")
		b.WriteString(answerStyle.Width(w).Render(t.Answer))
	}
	return b.String()
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	answerStyle        = lipgloss.NewStyle()
	summaryStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
