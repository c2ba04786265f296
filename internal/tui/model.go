// Package tui is the interactive question prompt of the ask command.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

// Searcher is the TUI-facing subset of the engine.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) (hebrew.SearchResult, error)
}

type answerMsg struct {
	query  string
	result hebrew.SearchResult
	err    error
}

// Model is the Bubble Tea model. Page 0 shows the answer; the following
// pages show one source each.
type Model struct {
	searcher Searcher
	topK     int
	summary  string

	input    textinput.Model
	viewport viewport.Model
	result   hebrew.SearchResult
	page     int
	status   string
	busy     bool
	ready    bool
}

// New creates a model asking searcher for topK sources per question.
func New(searcher Searcher, topK int, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "הקלד שאלה ולחץ Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		searcher: searcher,
		topK:     topK,
		summary:  summary,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready. Type a question.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.render())
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = hebrew.SearchResult{}
		} else {
			m.status = fmt.Sprintf("%d sources for %q (up/down to browse)", len(msg.result.Sources), msg.query)
			m.result = msg.result
		}
		m.page = 0
		m.viewport.SetContent(m.render())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Searching..."
			m.input.SetValue("")
			return m, m.ask(q)
		case "down":
			if pages := m.pages(); pages > 1 {
				m.page = (m.page + 1) % pages
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "up":
			if pages := m.pages(); pages > 1 {
				m.page = (m.page - 1 + pages) % pages
				m.viewport.SetContent(m.render())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.searcher.Search(context.Background(), q, m.topK)
		return answerMsg{query: q, result: res, err: err}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Hebrew document QA")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) pages() int {
	if m.result.Answer == "" {
		return 0
	}
	return 1 + len(m.result.Sources)
}

func (m Model) render() string {
	if m.pages() == 0 {
		return "No answer yet."
	}
	if m.page == 0 {
		return titleStyle.Render("Answer") + "\n\n" + m.result.Answer
	}
	s := m.result.Sources[m.page-1]
	title := fmt.Sprintf("Source %d/%d  %v p.%v  distance=%.3f",
		m.page, len(m.result.Sources), s.Fields["doc_id"], s.Fields["page"], s.Score)
	return titleStyle.Render(title) + "\n\n" + s.Text
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// Run starts the program on the terminal and blocks until the user quits.
func Run(searcher Searcher, topK int, summary string) error {
	_, err := tea.NewProgram(New(searcher, topK, summary), tea.WithAltScreen()).Run()
	return err
}
