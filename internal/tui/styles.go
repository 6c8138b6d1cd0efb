package tui

import "github.com/charmbracelet/lipgloss"

var (
	styleHeader    = lipgloss.NewStyle().Bold(true)
	styleDim       = lipgloss.NewStyle().Faint(true)
	styleAccent    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true) // blue
	styleBar       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))            // green
	styleBarTrail  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))           // dark gray
	styleHelp      = lipgloss.NewStyle().Faint(true)
	styleColHeader = lipgloss.NewStyle().Bold(true).Faint(true)

	styleOpen     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleClosed   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // dark gray
	styleFiltered = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleService  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")) // magenta
	styleBanner   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))

	styleCursor      = lipgloss.NewStyle().Background(lipgloss.Color("236")).Bold(true)
	styleTabActive   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	styleTabInactive = lipgloss.NewStyle().Faint(true)
)
