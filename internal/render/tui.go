package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/temirov/self-discover/internal/stream"
)

type (
	// PublishMsg carries the latest accumulated text of one labelled stream.
	PublishMsg struct {
		Label string
		Text  string
	}
	// DoneMsg ends the session; Err is shown in the status line.
	DoneMsg struct {
		Err     error
		Elapsed time.Duration
	}
)

type section struct {
	label string
	text  string
}

type keymap struct {
	Quit key.Binding
}

func defaultKeymap() keymap {
	return keymap{
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7dcfff"))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#bb9af7")).MarginTop(1)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a9b1d6"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
)

// Model is the bubbletea model that lays out every labelled stream in arrival
// order inside a scrolling viewport.
type Model struct {
	title    string
	sections []section
	viewport viewport.Model
	keys     keymap
	done     bool
	err      error
	elapsed  time.Duration
	ready    bool
}

func NewModel(title string) Model {
	return Model{title: title, viewport: viewport.New(80, 20), keys: defaultKeymap()}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width, m.viewport.Height = msg.Width, max(1, msg.Height-3)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case PublishMsg:
		m.upsert(msg.Label, msg.Text)
		m.refresh()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.elapsed = msg.Elapsed
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.status())
	return sb.String()
}

// Transcript is the plain text of every section, in arrival order.
func (m Model) Transcript() string {
	var sb strings.Builder
	for index, current := range m.sections {
		if index > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(current.label)
		sb.WriteString("\n\n")
		sb.WriteString(current.text)
	}
	return sb.String()
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("error: "+m.err.Error()) + statusStyle.Render("  (q to quit)")
	case m.done:
		return statusStyle.Render(fmt.Sprintf("done in %s  (q to quit)", m.elapsed.Round(time.Millisecond)))
	default:
		return statusStyle.Render("streaming…  (q to quit)")
	}
}

func (m *Model) upsert(label string, text string) {
	for index := range m.sections {
		if m.sections[index].label == label {
			m.sections[index].text = text
			return
		}
	}
	m.sections = append(m.sections, section{label: label, text: text})
}

func (m *Model) refresh() {
	var sb strings.Builder
	for index, current := range m.sections {
		if index > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(headingStyle.Render(current.label))
		sb.WriteString("\n")
		sb.WriteString(lipgloss.NewStyle().Width(max(1, m.viewport.Width)).Render(current.text))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

// ProgramSink forwards publications to a running bubbletea program.
type ProgramSink struct {
	Program *tea.Program
}

func (s ProgramSink) Publish(label string, text string) {
	s.Program.Send(PublishMsg{Label: label, Text: text})
}

// RunTUI runs work in the background while the full-screen view renders its
// publications. It returns work's error once the user quits.
func RunTUI(ctx context.Context, title string, work func(ctx context.Context, sink stream.Sink) error, options ...tea.ProgramOption) error {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	options = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, options...)
	program := tea.NewProgram(NewModel(title), options...)

	workErr := make(chan error, 1)
	go func() {
		started := time.Now()
		err := work(workCtx, ProgramSink{Program: program})
		workErr <- err
		program.Send(DoneMsg{Err: err, Elapsed: time.Since(started)})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		return err
	}
	cancel()
	return <-workErr
}
