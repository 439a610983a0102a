package report

import (
	"io"

	"github.com/nao1215/markdown"
)

// MarkdownWriter renders the status as a Markdown document, suitable for
// pasting into an issue.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter returns a MarkdownWriter writing to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(status *Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("torserve status")
	md.PlainText("")

	md.H2("Host")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Platform", status.Platform.DisplayName()},
			{"Platform ID", "`" + status.Platform.ID + "`"},
			{"Family", orDash(status.Platform.Family)},
			{"Hostname", orDash(status.Platform.Hostname)},
			{"Supported", yesNo(status.Supported)},
		},
	})
	md.PlainText("")

	md.H2("Tor")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Check", "Result"},
		Rows: [][]string{
			{"Installed", yesNo(status.TorInstalled)},
			{"SOCKS proxy", "`" + status.ProxyAddress + "`"},
			{"Proxy status", status.Proxy.String()},
		},
	})
	md.PlainText("")

	md.H2("Server")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Setting", "Value"},
		Rows: [][]string{
			{"Listen", "`" + status.ListenAddr + "`"},
			{"Mode", orDash(status.Mode)},
			{"Protocol", status.Protocol},
			{"Authtoken set", yesNo(status.AuthtokenSet)},
			{"Config file", orDash(status.ConfigFile)},
		},
	})
	md.PlainText("")

	if problems := status.Problems(); len(problems) > 0 {
		md.Warningf("%d problem(s) found.", len(problems))
		md.PlainText("")
		md.BulletList(problems...)
	} else {
		md.Tip("Ready to serve.")
	}
	md.PlainText("")

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Checked at %s*", status.CheckedAt.Format("2006-01-02 15:04:05 MST"))

	return len(md.String()), md.Build()
}
