package tunnel

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

type fakeHandle struct {
	url      string
	closeErr error
	closed   int
}

func (h *fakeHandle) URL() string { return h.url }

func (h *fakeHandle) Close() error {
	h.closed++
	return h.closeErr
}

type connectCall struct {
	port  int
	proto Protocol
}

type fakeConnector struct {
	handle *fakeHandle
	err    error
	calls  []connectCall
}

func (c *fakeConnector) Connect(_ context.Context, port int, proto Protocol) (Handle, error) {
	c.calls = append(c.calls, connectCall{port: port, proto: proto})
	if c.err != nil {
		return nil, c.err
	}
	return c.handle, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLauncherStart(t *testing.T) {
	t.Parallel()

	t.Run("public opens the tunnel and prints its URL", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		connector := &fakeConnector{handle: &fakeHandle{url: "https://abc123.ngrok-free.app"}}
		l := NewLauncher(connector, WithOutput(&out), WithLogger(quietLogger()), WithProtocol(ProtocolTCP))

		handle, err := l.Start(t.Context(), 8088, ModePublic)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if handle == nil || handle.URL() != "https://abc123.ngrok-free.app" {
			t.Fatalf("unexpected handle %#v", handle)
		}
		if len(connector.calls) != 1 || connector.calls[0] != (connectCall{port: 8088, proto: ProtocolTCP}) {
			t.Errorf("unexpected connect calls %v", connector.calls)
		}
		if got := out.String(); got != "Ngrok Public URL https://abc123.ngrok-free.app\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("private prints localhost and never connects", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		connector := &fakeConnector{}
		l := NewLauncher(connector, WithOutput(&out), WithLogger(quietLogger()))

		handle, err := l.Start(t.Context(), 8088, ModePrivate)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if handle != nil {
			t.Errorf("expected nil handle, got %#v", handle)
		}
		if len(connector.calls) != 0 {
			t.Errorf("expected no connect calls, got %v", connector.calls)
		}
		if got := out.String(); got != "Private URL : http://localhost:8088\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("connect failure is returned", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		l := NewLauncher(&fakeConnector{err: ErrNoAuthtoken}, WithOutput(&out), WithLogger(quietLogger()))

		_, err := l.Start(t.Context(), 9000, ModePublic)
		if !errors.Is(err, ErrNoAuthtoken) {
			t.Errorf("expected ErrNoAuthtoken, got %v", err)
		}
		if strings.Contains(out.String(), "Ngrok Public URL") {
			t.Errorf("unexpected URL line in %q", out.String())
		}
	})
}

func TestLauncherClose(t *testing.T) {
	t.Parallel()

	l := NewLauncher(&fakeConnector{}, WithLogger(quietLogger()))

	t.Run("nil handle", func(t *testing.T) {
		t.Parallel()
		l.Close(nil)
	})

	t.Run("closes once", func(t *testing.T) {
		t.Parallel()
		h := &fakeHandle{url: "https://x.ngrok.app"}
		l.Close(h)
		if h.closed != 1 {
			t.Errorf("expected 1 close, got %d", h.closed)
		}
	})

	t.Run("close error is logged not returned", func(t *testing.T) {
		t.Parallel()

		var logs bytes.Buffer
		ll := NewLauncher(&fakeConnector{}, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		ll.Close(&fakeHandle{url: "https://x.ngrok.app", closeErr: errors.New("session gone")})
		if !strings.Contains(logs.String(), "session gone") {
			t.Errorf("expected close error in logs, got %q", logs.String())
		}
	})
}

func TestLauncherPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantConnect bool
		wantLine    string
	}{
		{"1 is public", "1\n", true, "Ngrok Public URL https://pub.ngrok.app"},
		{"1 with spaces is public", "  1 \r\n", true, "Ngrok Public URL https://pub.ngrok.app"},
		{"2 is private", "2\n", false, "Private URL : http://localhost:8088"},
		{"empty line is private", "\n", false, "Private URL : http://localhost:8088"},
		{"yes is private", "yes\n", false, "Private URL : http://localhost:8088"},
		{"11 is private", "11\n", false, "Private URL : http://localhost:8088"},
		{"EOF is private", "", false, "Private URL : http://localhost:8088"},
		{"1 without newline is public", "1", true, "Ngrok Public URL https://pub.ngrok.app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			connector := &fakeConnector{handle: &fakeHandle{url: "https://pub.ngrok.app"}}
			l := NewLauncher(connector, WithOutput(&out), WithLogger(quietLogger()))

			handle, err := l.Prompt(t.Context(), strings.NewReader(tt.input), 8088)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := len(connector.calls) == 1; got != tt.wantConnect {
				t.Errorf("connect called = %v, want %v", got, tt.wantConnect)
			}
			if tt.wantConnect && (handle == nil || connector.calls[0].port != 8088) {
				t.Errorf("expected handle for port 8088, got %#v, %v", handle, connector.calls)
			}
			if !strings.HasPrefix(out.String(), privacyQuestion) {
				t.Errorf("expected prompt first, got %q", out.String())
			}
			if !strings.Contains(out.String(), tt.wantLine+"\n") {
				t.Errorf("expected %q in %q", tt.wantLine, out.String())
			}
		})
	}

	t.Run("read error is returned", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("tty closed")
		connector := &fakeConnector{}
		l := NewLauncher(connector, WithOutput(io.Discard), WithLogger(quietLogger()))

		_, err := l.Prompt(t.Context(), iotest.ErrReader(boom), 8088)
		if !errors.Is(err, boom) {
			t.Errorf("expected read error, got %v", err)
		}
		if len(connector.calls) != 0 {
			t.Error("connector must not be called after a read error")
		}
	})

	t.Run("cancellation interrupts a blocked read", func(t *testing.T) {
		t.Parallel()

		pr, pw := io.Pipe()
		t.Cleanup(func() {
			_ = pw.Close()
			_ = pr.Close()
		})

		connector := &fakeConnector{}
		l := NewLauncher(connector, WithOutput(io.Discard), WithLogger(quietLogger()))

		ctx, cancel := context.WithCancel(t.Context())
		errCh := make(chan error, 1)
		go func() {
			_, err := l.Prompt(ctx, pr, 8088)
			errCh <- err
		}()
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Prompt still waiting on input after cancel")
		}
		if len(connector.calls) != 0 {
			t.Error("connector must not be called after cancel")
		}
	})

	t.Run("already cancelled context reads nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		in := strings.NewReader("1\n")
		l := NewLauncher(&fakeConnector{}, WithOutput(io.Discard), WithLogger(quietLogger()))

		if _, err := l.Prompt(ctx, in, 8088); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if in.Len() != 3 {
			t.Errorf("expected input untouched, %d bytes left", in.Len())
		}
	})
}
