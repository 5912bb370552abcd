package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/mdbridge/internal/metrics"
	"github.com/san-kum/mdbridge/internal/sampling"
)

const (
	barWidth     = 40
	historyWidth = 60
)

// SnapshotMsg reports one recorded snapshot to the live view.
type SnapshotMsg struct {
	Step        int
	Temperature float64
	CVs         []float64
}

// DoneMsg ends the live view with the run's outcome.
type DoneMsg struct {
	Result *sampling.Result
	Err    error
}

// Progress is the bubbletea model behind "run --live".
type Progress struct {
	title   string
	total   int
	step    int
	temps   []float64
	cvNames []string
	cvs     [][]float64
	done    bool
	result  *sampling.Result
	err     error
	cancel  context.CancelFunc
}

func NewProgress(title string, total int, cvNames []string, cancel context.CancelFunc) Progress {
	return Progress{
		title:   title,
		total:   total,
		cvNames: cvNames,
		cvs:     make([][]float64, len(cvNames)),
		cancel:  cancel,
	}
}

func (m Progress) Init() tea.Cmd { return nil }

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			if m.done {
				return m, tea.Quit
			}
		}
		return m, nil

	case SnapshotMsg:
		m.step = msg.Step
		m.temps = appendBounded(m.temps, msg.Temperature)
		for i, v := range msg.CVs {
			if i < len(m.cvs) {
				m.cvs[i] = appendBounded(m.cvs[i], v)
			}
		}
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func appendBounded(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyWidth {
		xs = xs[len(xs)-historyWidth:]
	}
	return xs
}

func (m Progress) fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.step) / float64(m.total)
}

func (m Progress) View() string {
	var b strings.Builder

	b.WriteString(Title.Render(m.title))
	b.WriteString("\n\n")

	status := StatusRunning.Render("sampling")
	switch {
	case m.err != nil:
		status = StatusFailed.Render("failed: " + m.err.Error())
	case m.done:
		status = StatusRunning.Render("done")
	}
	fmt.Fprintf(&b, "%s  %s %d/%d\n\n", status, ProgressBar(m.fraction(), barWidth), m.step, m.total)

	if n := len(m.temps); n > 0 {
		b.WriteString(Metric("T", m.temps[n-1]))
		b.WriteString("  ")
		b.WriteString(Sparkline(m.temps, historyWidth))
		b.WriteString("\n")
	}
	for i, name := range m.cvNames {
		if n := len(m.cvs[i]); n > 0 {
			b.WriteString(Metric(name, m.cvs[i][n-1]))
			b.WriteString("  ")
			b.WriteString(Sparkline(m.cvs[i], historyWidth))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(KeyHint.Render("q: stop"))
	return Panel.Render(b.String())
}

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards recorded snapshots to a running program.
type Observer struct {
	sender Sender
}

func NewObserver(s Sender) *Observer {
	return &Observer{sender: s}
}

func (o *Observer) OnSnapshot(s sampling.Snapshot, cvs []float64) {
	o.sender.Send(SnapshotMsg{
		Step:        s.Step,
		Temperature: metrics.SnapshotTemperature(s),
		CVs:         append([]float64(nil), cvs...),
	})
}

// RunFunc performs a sampling run, reporting snapshots to obs.
type RunFunc func(ctx context.Context, obs sampling.Observer) (*sampling.Result, error)

// RunLive runs fn on its own goroutine while a progress view owns the
// terminal. Quitting the view cancels ctx passed to fn.
func RunLive(ctx context.Context, title string, total int, cvNames []string, fn RunFunc) (*sampling.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgress(title, total, cvNames, cancel))

	go func() {
		res, err := fn(ctx, NewObserver(p))
		p.Send(DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(Progress)
	return m.result, m.err
}
