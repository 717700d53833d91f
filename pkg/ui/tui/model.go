package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// Log levels understood by the view
	LevelInfo    = "INFO"
	LevelSuccess = "SUCCESS"
	LevelWarn    = "WARN"
	LevelError   = "ERROR"

	defaultBarWidth = 40
	maxPassRows     = 8
	maxLogMessages  = 5
)

// PassRow is one finished collection pass
type PassRow struct {
	Pass   int
	Seen   int
	Added  int
	Unique int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
}

// Model holds the export progress shown by the TUI. It is only touched from
// the bubbletea event loop; feed it through TUI, not directly.
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	// Collection state
	pass      int
	maxPasses int
	seen      int
	unique    int
	lastAdded int
	passes    []PassRow
	startTime time.Time

	// Outcome
	done    bool
	err     error
	stopped bool

	logMessages []LogMessage
	width       int
	height      int
}

// NewModel creates a model for an export of up to maxPasses passes
func NewModel(maxPasses int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	return Model{
		spinner:   s,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(defaultBarWidth)),
		maxPasses: maxPasses,
		startTime: time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// RecordPass adds a finished pass. seen counts the elements scanned in this
// pass; unique is the running number of distinct titles.
func (m *Model) RecordPass(pass, maxPasses, seen, added, unique int) {
	m.pass = pass
	if maxPasses > 0 {
		m.maxPasses = maxPasses
	}
	m.seen += seen
	m.unique = unique
	m.lastAdded = added

	m.passes = append(m.passes, PassRow{Pass: pass, Seen: seen, Added: added, Unique: unique})
	if len(m.passes) > maxPassRows {
		m.passes = m.passes[len(m.passes)-maxPassRows:]
	}
}

// AddLogMessage adds a log message, keeping the most recent few
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	if len(m.logMessages) > maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-maxLogMessages:]
	}
}

// Finish marks the export as ended with err
func (m *Model) Finish(err error) {
	m.done = true
	m.err = err
	if err != nil {
		m.AddLogMessage(LevelError, err.Error())
		return
	}
	m.AddLogMessage(LevelSuccess, fmt.Sprintf("%d unique titles after %d passes", m.unique, m.pass))
}

// Percent returns the share of passes done, between 0 and 1
func (m Model) Percent() float64 {
	if m.maxPasses <= 0 {
		return 0
	}
	p := float64(m.pass) / float64(m.maxPasses)
	if p > 1 {
		return 1
	}
	return p
}

// Pass returns the last finished pass
func (m Model) Pass() int { return m.pass }

// Seen returns the number of elements scanned over all passes
func (m Model) Seen() int { return m.seen }

// Unique returns the number of distinct titles collected so far
func (m Model) Unique() int { return m.unique }

// Passes returns the most recent passes, oldest first
func (m Model) Passes() []PassRow { return m.passes }

// Stopped reports whether the operator quit the view before the export ended
func (m Model) Stopped() bool { return m.stopped }

// Done reports whether the export has ended
func (m Model) Done() bool { return m.done }

// formatDuration formats a duration as mm:ss, or hh:mm:ss past an hour
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
