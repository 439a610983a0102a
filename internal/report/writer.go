package report

import "io"

// Writer renders a Status.
type Writer interface {
	// Write returns the number of bytes written.
	Write(status *Status) (int, error)
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
