package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	TitleStyle = lipgloss.NewStyle().Bold(true)

	HelpStyle = lipgloss.NewStyle().Faint(true)

	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// FormatCloseWithChange formats a close with an arrow against the previous close.
func FormatCloseWithChange(current, previous float64) string {
	closeStr := fmt.Sprintf("%.4f", current)

	if previous == 0 {
		return closeStr
	}

	if current > previous {
		return closeStr + " ▲"
	} else if current < previous {
		return closeStr + " ▼"
	}

	return closeStr
}
