// Package tui renders a live terminal view of a running simulation. The run
// loop stays on its own goroutine; an observer forwards scalar progress into
// the bubbletea program, so the view never touches simulation state directly.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mdsim/internal/md"
	"github.com/san-kum/mdsim/internal/thermostat"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

const historyLen = 120

type progressMsg struct {
	step        int
	time        float64
	kinetic     float64
	potential   float64
	temperature float64
	shakeFails  int
}

type doneMsg struct {
	result *md.Result
	err    error
}

// progressObserver runs inside the step loop, so reading the snapshot is
// safe; only plain values cross into the tea program.
type progressObserver struct {
	prog  *tea.Program
	every int
}

func (o *progressObserver) OnStep(s md.Snapshot) {
	if s.Step%o.every != 0 {
		return
	}
	o.prog.Send(progressMsg{
		step:        s.Step,
		time:        s.Time,
		kinetic:     s.Kinetic,
		potential:   s.Potential,
		temperature: thermostat.Temperature(s.Sys.Vel, s.Sys.Particles),
	})
}

type model struct {
	name    string
	steps   int
	cancel  context.CancelFunc
	last    progressMsg
	history []float64
	result  *md.Result
	err     error
	done    bool
	width   int
}

func newModel(name string, steps int, cancel context.CancelFunc) *model {
	return &model{
		name:    name,
		steps:   steps,
		cancel:  cancel,
		history: make([]float64, 0, historyLen),
		width:   80,
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			if m.done {
				return m, tea.Quit
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case progressMsg:
		m.last = msg
		m.history = append(m.history, msg.kinetic+msg.potential)
		if len(m.history) > historyLen {
			m.history = m.history[1:]
		}
	case doneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("mdsim "+m.name) + "\n\n")

	b.WriteString(m.row("step", fmt.Sprintf("%d / %d", m.last.step, m.steps)))
	b.WriteString(m.row("time", fmt.Sprintf("%.4f", m.last.time)))
	b.WriteString(m.row("kinetic", fmt.Sprintf("%.6g", m.last.kinetic)))
	b.WriteString(m.row("potential", fmt.Sprintf("%.6g", m.last.potential)))
	b.WriteString(m.row("total", fmt.Sprintf("%.6g", m.last.kinetic+m.last.potential)))
	b.WriteString(m.row("temperature", fmt.Sprintf("%.2f", m.last.temperature)))
	b.WriteString("\n")

	if len(m.history) > 1 {
		b.WriteString(labelStyle.Render("total energy") + "\n")
		b.WriteString(asciigraph.Plot(m.history, asciigraph.Height(8), asciigraph.Width(min(m.width-12, 100))) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(warnStyle.Render("run stopped: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString(doneStyle.Render("run complete") + "\n")
	default:
		b.WriteString(labelStyle.Render("q to stop") + "\n")
	}
	return b.String()
}

func (m *model) row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("  %-12s", label)) + valueStyle.Render(value) + "\n"
}

// Run drives a simulation under the live view and returns its result. The q
// key cancels the run; the partial result comes back with the context error.
func Run(ctx context.Context, simulator *md.Simulator, cfg md.Config, name string) (*md.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	every := cfg.Steps / 500
	if every < 1 {
		every = 1
	}

	m := newModel(name, cfg.Steps, cancel)
	prog := tea.NewProgram(m)
	simulator.AddObserver(&progressObserver{prog: prog, every: every})

	go func() {
		result, err := simulator.Run(ctx, cfg)
		prog.Send(doneMsg{result: result, err: err})
	}()

	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	fm := final.(*model)
	return fm.result, fm.err
}
