package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sakif/commit-dashboard/internal/commitview"
	"github.com/sakif/commit-dashboard/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#24292F")).
			Padding(0, 1).
			Bold(true)

	shaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D29922"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8B949E"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4C4C")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3FB950")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#D29922")).
			Padding(0, 1)
)

func title(w io.Writer, s string) {
	fmt.Fprintln(w, titleStyle.Render(s))
}

func muted(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf(format, args...)))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf(format, args...)))
}

// badge draws a file status in its indicator colour.
func badge(status model.FileStatus) string {
	ind := commitview.StatusIndicator(status)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ind.Color)).
		Bold(true).
		Render(ind.Badge)
}
