// Package report renders the host status shown by "torserve status".
//
// Writers implement the Writer interface: TextWriter styles the status for
// a terminal with lipgloss, MarkdownWriter produces a document with
// nao1215/markdown and JSONWriter emits a flat object for scripts.
package report
