// Package progress renders a live view of a migration run in the terminal.
package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/surmigrate/surmigrate/internal/executor"
	"github.com/surmigrate/surmigrate/internal/migration"
)

type status int

const (
	statusPending status = iota
	statusRunning
	statusExecuted
	statusSkipped
	statusFailed
)

type row struct {
	file   migration.File
	status status
}

// EventMsg carries a runner event into the model.
type EventMsg executor.Event

// DoneMsg ends the view once the run has returned.
type DoneMsg struct {
	Report *executor.Report
	Err    error
}

// Model is the bubbletea model for an apply run.
type Model struct {
	title   string
	spinner spinner.Model
	state   executor.State
	rows    []row
	index   map[string]int
	report  *executor.Report
	err     error
	done    bool
}

// New creates a model titled with the target description.
func New(title string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		title:   title,
		spinner: sp,
		index:   make(map[string]int),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			// The run itself is not cancelled; only the view stops.
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(executor.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.report = msg.Report
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) apply(ev executor.Event) {
	switch ev.Type {
	case executor.EventState:
		m.state = ev.State
	case executor.EventPlanned:
		m.rows = m.rows[:0]
		for _, f := range append(append([]migration.File{}, ev.Plan.OneOffs...), ev.Plan.Idempotents...) {
			m.index[f.Name] = len(m.rows)
			m.rows = append(m.rows, row{file: f})
		}
	case executor.EventSkipped:
		m.set(ev.File.Name, statusSkipped)
	case executor.EventStarted:
		m.set(ev.File.Name, statusRunning)
	case executor.EventExecuted:
		m.set(ev.File.Name, statusExecuted)
	case executor.EventFailed:
		m.state = executor.StateFailed
		m.err = ev.Err
		for i := range m.rows {
			if m.rows[i].status == statusRunning {
				m.rows[i].status = statusFailed
			}
		}
	}
}

func (m *Model) set(name string, s status) {
	if i, ok := m.index[name]; ok {
		m.rows[i].status = s
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("surmigrate apply " + m.title))
	b.WriteString("\n\n")

	if len(m.rows) == 0 && !m.state.Terminal() {
		fmt.Fprintf(&b, "  %s %s\n", m.spinner.View(), m.state)
	}

	for _, r := range m.rows {
		label := r.file.Name
		if r.file.Kind == migration.OneOff {
			label = fmt.Sprintf("%s %s", label, mutedStyle.Render("#"+r.file.ID))
		}
		switch r.status {
		case statusRunning:
			fmt.Fprintf(&b, "  %s %s\n", m.spinner.View(), label)
		case statusExecuted:
			fmt.Fprintf(&b, "  %s %s\n", doneStyle.Render(iconSuccess), label)
		case statusSkipped:
			fmt.Fprintf(&b, "  %s %s\n", mutedStyle.Render(iconSkip), mutedStyle.Render(r.file.Name+" (already applied)"))
		case statusFailed:
			fmt.Fprintf(&b, "  %s %s\n", failedStyle.Render(iconError), label)
		default:
			fmt.Fprintf(&b, "  %s %s\n", mutedStyle.Render(iconPending), mutedStyle.Render(r.file.Name))
		}
	}

	switch {
	case m.err != nil:
		b.WriteString(summaryStyle.Render(failedStyle.Render("Run failed: ") + m.err.Error()))
		b.WriteString("\n")
	case m.done && m.report != nil:
		b.WriteString(summaryStyle.Render(Summary(m.report)))
		b.WriteString("\n")
	}

	return b.String()
}

// Summary describes a finished run in one line.
func Summary(r *executor.Report) string {
	return fmt.Sprintf("%d one-off executed, %d skipped, %d idempotent executed",
		len(r.ExecutedOneOffs), len(r.SkippedOneOffs), len(r.ExecutedIdempotents))
}

// Run shows the view while run executes. run receives the observer to hand
// to the runner. It returns once the run has finished, even if the view was
// closed early.
func Run(title string, run func(executor.Observer) (*executor.Report, error), opts ...tea.ProgramOption) (*executor.Report, error) {
	p := tea.NewProgram(New(title), opts...)

	type outcome struct {
		report *executor.Report
		err    error
	}
	result := make(chan outcome, 1)
	go func() {
		report, err := run(func(ev executor.Event) { p.Send(EventMsg(ev)) })
		result <- outcome{report, err}
		p.Send(DoneMsg{Report: report, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		out := <-result
		if out.err != nil {
			return out.report, out.err
		}
		return out.report, fmt.Errorf("progress view failed: %w", err)
	}
	out := <-result
	return out.report, out.err
}
