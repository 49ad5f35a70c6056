package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

func successMsg(format string, a ...any) string {
	return successStyle.Render("✓") + " " + fmt.Sprintf(format, a...)
}

func warnMsg(format string, a ...any) string {
	return warnStyle.Render("!") + " " + fmt.Sprintf(format, a...)
}

func errorMsg(format string, a ...any) string {
	return errorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

func infoMsg(format string, a ...any) string {
	return accentStyle.Render("●") + " " + fmt.Sprintf(format, a...)
}

type pair struct {
	key   string
	value string
}

// keyValues renders aligned "key:  value" lines with a trailing newline.
func keyValues(pairs ...pair) string {
	maxLen := 0
	for _, p := range pairs {
		if len(p.key) > maxLen {
			maxLen = len(p.key)
		}
	}
	var sb strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", maxLen+1, p.key+":")
		sb.WriteString(labelStyle.Render(label) + " " + p.value + "\n")
	}
	return sb.String()
}
