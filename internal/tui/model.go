package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"talkrag/internal/domain"
)

// AskPort is the TUI-facing subset of the query pipeline.
type AskPort interface {
	Answer(ctx context.Context, question string, topK int) (domain.Answer, error)
}

// Model is the Bubble Tea model for the chat loop.
type Model struct {
	pipeline     AskPort
	input        textinput.Model
	viewport     viewport.Model
	answer       domain.Answer
	status       string
	cursor       int
	ready        bool
	waiting      bool
	lastQuestion string
}

// answerMsg delivers a finished pipeline call back into the event loop.
type answerMsg struct {
	question string
	answer   domain.Answer
	err      error
}

// askCmd runs the pipeline off the event loop so Update never blocks on
// network calls.
func askCmd(pipeline AskPort, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := pipeline.Answer(context.Background(), question, 0)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

// New creates a new TUI model instance.
func New(pipeline AskPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the talks and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{pipeline: pipeline, input: ti, viewport: vp, status: "Ready. Type a question."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and question boxes
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := questionBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header + status + question box + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = domain.Answer{}
		} else {
			m.status = fmt.Sprintf("Answered %q with %d contexts", msg.question, len(msg.answer.Retrieved))
			m.answer = msg.answer
			m.cursor = 0
			m.lastQuestion = msg.question
		}
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.waiting {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.waiting = true
				m.status = "Thinking..."
				return m, askCmd(m.pipeline, q)
			}
		case "down":
			if len(m.answer.Retrieved) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Retrieved)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "up":
			if len(m.answer.Retrieved) > 0 {
				m.cursor = (m.cursor - 1 + len(m.answer.Retrieved)) % len(m.answer.Retrieved)
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Conference Talk Q&A")
	input := questionBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer.Text == "" {
		return "No answer yet."
	}
	var sb strings.Builder
	sb.WriteString(answerStyle.Render(m.answer.Text))
	sb.WriteString("\n\n")
	if len(m.answer.Retrieved) > 0 {
		match := m.answer.Retrieved[m.cursor]
		sb.WriteString(fmt.Sprintf("Context %d/%d  score=%.3f\n", m.cursor+1, len(m.answer.Retrieved), match.Score))
		sb.WriteString(sourceStyle.Render(fmt.Sprintf("%s - %s (%s)", match.Record.Title, match.Record.Speaker, match.Record.Source)))
		sb.WriteString("\n")
		sb.WriteString(match.Record.Text)
	}
	return sb.String()
}

var (
	answerBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sourceStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
