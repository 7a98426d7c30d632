package ui

import "github.com/charmbracelet/lipgloss"

// Icon constants
const (
	OwnerIcon    = "👑"
	ImpostorIcon = "🕵"
	SelfMark     = "(你)"
)

var (
	docStyle     = lipgloss.NewStyle().Margin(1, 2)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	promptStyle  = lipgloss.NewStyle().MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	wordStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	impostorText = lipgloss.NewStyle().Foreground(lipgloss.Color("#CD0000")).Bold(true)
)

var phaseLabels = map[string]string{
	"lobby":   "等待开始",
	"active":  "投票中",
	"results": "本轮结束",
}
