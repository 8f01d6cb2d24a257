package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/contactbook/internal/contact"
)

// MinColumnWidth is the narrowest a table column may get.
const MinColumnWidth = 8

var (
	accentColor = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dimColor    = lipgloss.AdaptiveColor{Light: "240", Dark: "240"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	mutedText = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})

	statusOK = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "2", Dark: "10"})

	statusErr = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})

	labelStyle = lipgloss.NewStyle().
			Width(9).
			Align(lipgloss.Right).
			MarginRight(1)
)

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor)
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor)
}

// tableStyles returns the contact table styles.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.AdaptiveColor{Light: "15", Dark: "229"}).
		Background(accentColor).
		Bold(false)
	return s
}

// ColumnWidths splits the usable width across the four contact columns.
// Name and Phone get a quarter each, Email a quarter, Address the rest.
// Each column gets at least MinColumnWidth.
func ColumnWidths(totalWidth int) [4]int {
	// Each column carries one cell of padding on both sides.
	usable := totalWidth - 2*len(contact.Fields)
	quarter := usable / 4
	if quarter < MinColumnWidth {
		quarter = MinColumnWidth
	}
	last := usable - 3*quarter
	if last < MinColumnWidth {
		last = MinColumnWidth
	}
	return [4]int{quarter, quarter, quarter, last}
}
