package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI represents the terminal user interface. It satisfies library.Observer.
type TUI struct {
	program *tea.Program
	model   *Model
}

// New creates a TUI for an export of up to maxPasses passes. The view stays
// inline so the last frame is left on the terminal when it exits.
func New(maxPasses int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(maxPasses)
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program: program,
		model:   &model,
	}
}

// Start runs the TUI until the export finishes or the operator quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI. It blocks until the TUI takes the
// message and returns at once after the TUI has exited.
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// OnPass reports a finished collection pass
func (t *TUI) OnPass(pass, maxPasses, seen, added, unique int) {
	t.Send(PassMsg{Pass: pass, MaxPasses: maxPasses, Seen: seen, Added: added, Unique: unique})
}

// Finish reports the end of the export and closes the TUI
func (t *TUI) Finish(err error) {
	t.Send(DoneMsg{Err: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log(LevelInfo, format, args...)
}

// Model returns the model. Only read it after Start has returned.
func (t *TUI) Model() *Model {
	return t.model
}

// Stopped reports whether the operator quit before the export ended. Only
// meaningful after Start has returned.
func (t *TUI) Stopped() bool {
	return t.model.stopped
}
