package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// QAPort is the TUI-facing subset of the pipeline.
type QAPort interface {
	Answer(ctx context.Context, rawQuery string) (string, error)
}

// Model is the Bubble Tea model for the interactive query session. The
// document has already been processed by the time the TUI starts.
type Model struct {
	pipeline QAPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	docName  string
	status   string
	summary  string
	busy     bool
	ready    bool
}

type answerMsg struct{ text string }

type answerErrMsg struct{ err error }

// New creates a new TUI model instance for an already-processed document.
func New(pipeline QAPort, docName string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask your query and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	vp := viewport.New(0, 0)
	return Model{
		pipeline: pipeline,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		docName:  docName,
		status:   "Document loaded. Type a query to get a summary.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + doc line, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderSummary())
		return m, nil

	case answerMsg:
		m.busy = false
		m.summary = msg.text
		m.status = "Summary ready."
		m.viewport.SetContent(m.renderSummary())
		return m, nil

	case answerErrMsg:
		m.busy = false
		m.status = "Error: " + msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.busy {
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.busy = true
				m.status = "Generating summary..."
				return m, tea.Batch(m.spinner.Tick, m.ask(q))
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(query string) tea.Cmd {
	return func() tea.Msg {
		text, err := m.pipeline.Answer(context.Background(), query)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{text: text}
	}
}

// View renders the TUI layout and current summary.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Summarizer")
	doc := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Document: " + m.docName)
	result := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + doc + "\n" + result + "\n" + input + "\n" + status
}

func (m Model) renderSummary() string {
	if m.summary == "" {
		return "No summary yet. Ask a query below."
	}
	return m.summary
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
