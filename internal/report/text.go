package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	green = lipgloss.Color("76")
	red   = lipgloss.Color("204")
	dim   = lipgloss.Color("243")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(dim)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
)

// TextWriter renders aligned "key: value" lines for a terminal.
type TextWriter struct {
	baseWriter
}

// NewTextWriter returns a TextWriter writing to output.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

type pair struct {
	key   string
	value string
}

// Write implements Writer.
func (w *TextWriter) Write(status *Status) (int, error) {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("torserve status") + "\n\n")
	sb.WriteString(keyValues(
		pair{"Platform", status.Platform.DisplayName()},
		pair{"Supported", check(status.Supported)},
		pair{"Hostname", orDash(status.Platform.Hostname)},
		pair{"Tor installed", check(status.TorInstalled)},
		pair{"SOCKS proxy", status.ProxyAddress + " (" + proxyText(status) + ")"},
		pair{"Listen", status.ListenAddr},
		pair{"Mode", orDash(status.Mode)},
		pair{"Protocol", status.Protocol},
		pair{"Authtoken", yesNo(status.AuthtokenSet)},
		pair{"Config file", orDash(status.ConfigFile)},
	))

	sb.WriteString("\n")
	if problems := status.Problems(); len(problems) > 0 {
		for _, p := range problems {
			sb.WriteString(errorStyle.Render("✗") + " " + p + "\n")
		}
	} else {
		sb.WriteString(successStyle.Render("✓") + " ready to serve\n")
	}

	return fmt.Fprint(w.output, sb.String())
}

func keyValues(pairs ...pair) string {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p.key))
	}

	var sb strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", width+1, p.key+":")
		sb.WriteString("  " + labelStyle.Render(label) + " " + p.value + "\n")
	}
	return sb.String()
}

func check(v bool) string {
	if v {
		return successStyle.Render("yes")
	}
	return errorStyle.Render("no")
}

func proxyText(status *Status) string {
	if status.Proxy.Error() != nil {
		return errorStyle.Render(status.Proxy.String())
	}
	return status.Proxy.String()
}
