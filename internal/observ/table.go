package observ

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	nameStyle  = lipgloss.NewStyle().Width(22)
	durStyle   = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	totalStyle = lipgloss.NewStyle().Bold(true)
)

// Table renders the report as a styled table for terminals.
func (r Report) Table() string {
	rows := make([]string, 0, len(r.Phases)+2)
	rows = append(rows, headStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		nameStyle.Render("phase"), durStyle.Render("ms"))))
	for _, p := range r.Phases {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			nameStyle.Render(p.Name), durStyle.Render(fmt.Sprintf("%.2f", p.DurationMS)))
		if p.Note != "" {
			line += "  " + noteStyle.Render(p.Note)
		}
		rows = append(rows, line)
	}
	rows = append(rows, totalStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		nameStyle.Render("total"), durStyle.Render(fmt.Sprintf("%.2f", r.TotalMS)))))
	return strings.Join(rows, "\n") + "\n"
}
