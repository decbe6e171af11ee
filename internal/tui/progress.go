package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

// ProgressDisplay shows a spinner per dataset while it loads and a
// styled result line once it is done. When not interactive it prints
// nothing, leaving the output to the logger.
//
// Safe for concurrent use.
type ProgressDisplay struct {
	out         io.Writer
	interactive bool

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewProgressDisplay creates a display writing to out.
func NewProgressDisplay(out io.Writer, interactive bool) *ProgressDisplay {
	return &ProgressDisplay{out: out, interactive: interactive}
}

// Start shows a spinner for dataset, or relabels the running one.
func (p *ProgressDisplay) Start(dataset string) {
	if !p.interactive {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	label := "Loading " + dataset
	if p.program != nil {
		p.program.Send(labelMsg(label))
		return
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	program := tea.NewProgram(
		spinnerModel{spinner: s, label: label},
		tea.WithOutput(p.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = program.Run()
	}()

	p.program = program
	p.done = done
}

// Done reports a committed (or, in a dry run, mapped) dataset.
func (p *ProgressDisplay) Done(result sdwload.LoadResult) {
	p.finish(FormatResult(result), false)
}

// Fail reports a dataset that did not load.
func (p *ProgressDisplay) Fail(dataset string, err error) {
	p.finish(fmt.Sprintf("%s failed", dataset), true)
}

// Logger wraps base so Info lines print above a running spinner instead
// of through it.
func (p *ProgressDisplay) Logger(base sdwload.Logger) sdwload.Logger {
	return &displayLogger{Logger: base, display: p}
}

func (p *ProgressDisplay) finish(text string, failed bool) {
	if !p.interactive {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program == nil {
		fmt.Fprintln(p.out, renderResult(text, failed))
		return
	}

	p.program.Send(finishMsg{text: text, failed: failed})
	<-p.done
	p.program = nil
	p.done = nil
}

// println prints msg above the spinner. It reports false when no
// spinner is running.
func (p *ProgressDisplay) println(msg string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.program == nil {
		return false
	}
	p.program.Println(msg)
	return true
}

// FormatResult renders a one-line summary of result.
func FormatResult(r sdwload.LoadResult) string {
	verb := "loaded"
	if !r.Committed {
		verb = "mapped"
	}
	return fmt.Sprintf("%s: %d rows %s %s %s (%s)",
		r.Dataset, r.Rows, verb, SymbolArrow, r.Table, r.Duration.Round(time.Millisecond))
}

func renderResult(text string, failed bool) string {
	if failed {
		return ErrorStyle.Render(SymbolCross + " " + text)
	}
	return SuccessStyle.Render(SymbolCheck + " " + text)
}

type labelMsg string

type finishMsg struct {
	text   string
	failed bool
}

type spinnerModel struct {
	spinner spinner.Model
	label   string
	result  string
	failed  bool
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case labelMsg:
		m.label = string(msg)
		return m, nil
	case finishMsg:
		m.done = true
		m.result = msg.text
		m.failed = msg.failed
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return renderResult(m.result, m.failed) + "\n"
	}
	return m.spinner.View() + " " + MutedStyle.Render(m.label)
}

type displayLogger struct {
	sdwload.Logger
	display *ProgressDisplay
}

func (l *displayLogger) Info(format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if l.display.println(msg) {
		return
	}
	l.Logger.Info(format, args...)
}
