package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	greenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func Greenf(format string, a ...any) {
	fmt.Fprint(os.Stdout, greenStyle.Render(fmt.Sprintf(format, a...)))
}

func Warningf(format string, a ...any) {
	fmt.Fprint(os.Stdout, warningStyle.Render(fmt.Sprintf(format, a...)))
}

func Debugf(enabled bool, format string, a ...any) {
	if enabled {
		fmt.Fprint(os.Stdout, debugStyle.Render("[DEBUG] "+fmt.Sprintf(format, a...)))
	}
}
