package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m Model) View() string {
	sections := []string{
		titleStyle.Render(" MY MOVIES EXPORT "),
		m.renderProgressPanel(),
		m.renderPassesPanel(),
	}
	if len(m.logMessages) > 0 {
		sections = append(sections, m.renderLogs())
	}
	sections = append(sections, m.renderStatus())

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// renderProgressPanel renders the pass bar and the running totals
func (m Model) renderProgressPanel() string {
	counter := statsLabelStyle.Render(fmt.Sprintf("PASS %d/%d", m.pass, m.maxPasses))
	bar := lipgloss.JoinHorizontal(lipgloss.Center, counter, " ", m.progress.ViewAs(m.Percent()))

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elements scanned:"), statsValueStyle.Render(fmt.Sprint(m.seen))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Unique titles:"), statsValueStyle.Render(fmt.Sprint(m.unique))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Last pass:"), addedStyle.Render(fmt.Sprintf("+%d new", m.lastAdded))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elapsed:"), statsValueStyle.Render(formatDuration(time.Since(m.startTime)))),
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, bar, "", strings.Join(stats, "\n")))
}

// renderPassesPanel lists the most recent passes
func (m Model) renderPassesPanel() string {
	if len(m.passes) == 0 {
		return panelStyle.Render(idleStyle.Render("Waiting for the first pass..."))
	}

	rows := make([]string, 0, len(m.passes))
	for _, p := range m.passes {
		added := idleStyle.Render("+0")
		if p.Added > 0 {
			added = addedStyle.Render(fmt.Sprintf("+%d", p.Added))
		}
		rows = append(rows, fmt.Sprintf("#%-3d %5d seen  %s  %d unique", p.Pass, p.Seen, added, p.Unique))
	}
	return panelStyle.Render(strings.Join(rows, "\n"))
}

// renderLogs renders the recent log messages
func (m Model) renderLogs() string {
	lines := make([]string, 0, len(m.logMessages))
	for _, msg := range m.logMessages {
		level := levelStyle(msg.Level).Render(fmt.Sprintf("[%s]", msg.Level))
		lines = append(lines, fmt.Sprintf("%s %s", level, logMessageStyle.Render(msg.Message)))
	}
	return strings.Join(lines, "\n")
}

// renderStatus renders the spinner while running and the outcome after
func (m Model) renderStatus() string {
	switch {
	case m.stopped:
		return warningStyle.Render("Stopping...")
	case m.done && m.err != nil:
		return errorStyle.Render("Export failed")
	case m.done:
		return successStyle.Render("Export complete")
	default:
		return m.spinner.View() + " Collecting titles" + helpStyle.Render("q to stop")
	}
}
