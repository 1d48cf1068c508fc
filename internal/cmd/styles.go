package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tmccall/taskward/internal/task"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	queuedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	retryingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
)

// renderStatus colors a task status for terminal output.
func renderStatus(s task.Status) string {
	switch s {
	case task.StatusQueued:
		return queuedStyle.Render(string(s))
	case task.StatusRunning:
		return runningStyle.Render(string(s))
	case task.StatusRetrying:
		return retryingStyle.Render(string(s))
	case task.StatusCompleted:
		return completedStyle.Render(string(s))
	case task.StatusFailed:
		return failedStyle.Render(string(s))
	default:
		return string(s)
	}
}

// renderEnabled renders a project's enabled flag.
func renderEnabled(enabled bool) string {
	if enabled {
		return enabledStyle.Render("enabled")
	}
	return disabledStyle.Render("disabled")
}
