package report

import (
	"fmt"

	"censuswage/internal/logging"
	"censuswage/internal/store"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	okColor     = lipgloss.Color("#8BC34A")
	failedColor = lipgloss.Color("#e53935")
	mutedColor  = lipgloss.Color("#6b7280")
)

// Render styles Markdown for the terminal, wrapping at width columns.
func Render(md string, width int) (string, error) {
	timer := logging.StartTimer(logging.CategoryReport, "Render")
	defer timer.Stop()

	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	logging.ReportDebug("Rendered %d bytes of markdown into %d bytes", len(md), len(out))
	return out, nil
}

// Banner is the one-line run header printed before the report.
func Banner(run *store.Run) string {
	color := okColor
	if run.Status != store.StatusOK {
		color = failedColor
	}
	status := lipgloss.NewStyle().Bold(true).Foreground(color).Render(run.Status)
	id := lipgloss.NewStyle().Bold(true).Render(run.ID)
	detail := lipgloss.NewStyle().Foreground(mutedColor).
		Render(fmt.Sprintf("%s, %s rows clean, %s", run.Input, count(run.RowsClean), run.Duration))
	return lipgloss.JoinHorizontal(lipgloss.Top, "censuswage ", id, " ", status, " ", detail)
}
