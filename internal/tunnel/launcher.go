package tunnel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Handle is an open tunnel. The owner must Close it.
type Handle interface {
	URL() string
	Close() error
}

// Connector opens a tunnel to a local port.
type Connector interface {
	Connect(ctx context.Context, port int, proto Protocol) (Handle, error)
}

// privacyQuestion is printed by Prompt before reading the answer.
const privacyQuestion = "Make the server public? (1 - public, 2 - private): "

// Launcher opens or skips the tunnel according to the chosen mode and
// prints the URL the server can be reached at.
type Launcher struct {
	connector Connector
	protocol  Protocol
	out       io.Writer
	logger    *slog.Logger
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithProtocol sets the tunnel protocol. Defaults to http.
func WithProtocol(p Protocol) LauncherOption {
	return func(l *Launcher) {
		l.protocol = p
	}
}

// WithOutput sets where the URL lines and the prompt go. Defaults to os.Stdout.
func WithOutput(w io.Writer) LauncherOption {
	return func(l *Launcher) {
		l.out = w
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) LauncherOption {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// NewLauncher returns a launcher that opens public tunnels with connector.
func NewLauncher(connector Connector, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		connector: connector,
		protocol:  ProtocolHTTP,
		out:       os.Stdout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start opens a tunnel to port in public mode and prints its public URL.
// In private mode the connector is not touched, the localhost URL is
// printed and the returned Handle is nil.
func (l *Launcher) Start(ctx context.Context, port int, mode Mode) (Handle, error) {
	if mode != ModePublic {
		fmt.Fprintf(l.out, "Private URL : http://localhost:%d\n", port)
		return nil, nil //nolint:nilnil // private mode has no tunnel
	}

	handle, err := l.connector.Connect(ctx, port, l.protocol)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s tunnel to port %d: %w", l.protocol, port, err)
	}
	l.logger.Debug("tunnel opened", "protocol", l.protocol.String(), "port", port, "url", handle.URL())
	fmt.Fprintf(l.out, "Ngrok Public URL %s\n", handle.URL())
	return handle, nil
}

// Close closes handle. A nil handle is a no-op and close errors are only logged.
func (l *Launcher) Close(handle Handle) {
	if handle == nil {
		return
	}
	if err := handle.Close(); err != nil {
		l.logger.Warn("failed to close tunnel", "url", handle.URL(), "error", err)
		return
	}
	l.logger.Debug("tunnel closed", "url", handle.URL())
}

// Prompt asks whether the server should be public, reads one line from in
// and calls Start with the chosen mode. End of input selects private mode.
// Cancelling ctx abandons the read and returns ctx.Err().
func (l *Launcher) Prompt(ctx context.Context, in io.Reader, port int) (Handle, error) {
	fmt.Fprint(l.out, privacyQuestion)

	answer, err := readLine(ctx, in)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if errors.Is(err, io.EOF) {
		// no newline was echoed
		fmt.Fprintln(l.out)
	}

	return l.Start(ctx, port, ModeFromChoice(answer))
}

type lineResult struct {
	line string
	err  error
}

// readLine reads up to a newline from in. A read blocked on a terminal
// cannot be interrupted, so on cancellation the reading goroutine is left to
// finish on its own.
func readLine(ctx context.Context, in io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	done := make(chan lineResult, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		done <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil && !errors.Is(r.err, io.EOF) {
			return "", fmt.Errorf("failed to read privacy choice: %w", r.err)
		}
		return r.line, r.err
	}
}
