package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the thread view.
type Styles struct {
	Header    lipgloss.Style
	PageURL   lipgloss.Style
	Author    lipgloss.Style
	Handle    lipgloss.Style
	Body      lipgloss.Style
	Meta      lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Help      lipgloss.Style
	Separator lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		PageURL:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true),
		Author:    lipgloss.NewStyle().Bold(true),
		Handle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Body:      lipgloss.NewStyle(),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
