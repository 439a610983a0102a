package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/torserve/internal/config"
	"github.com/nao1215/torserve/internal/platform"
	"github.com/nao1215/torserve/internal/tor"
	"github.com/nao1215/torserve/internal/tunnel"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeRunner struct {
	calls [][]string
	fail  map[string]error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	argv := append([]string{name}, args...)
	r.calls = append(r.calls, argv)
	for word, err := range r.fail {
		if strings.Contains(strings.Join(argv, " "), word) {
			return err
		}
	}
	return nil
}

type fakeProbe bool

func (p fakeProbe) Installed(context.Context) bool { return bool(p) }

type fakeHandle struct {
	url    string
	waitCh chan error

	mu     sync.Mutex
	closed int
}

func (h *fakeHandle) URL() string { return h.url }

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *fakeHandle) Wait() error { return <-h.waitCh }

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type fakeConnector struct {
	handle tunnel.Handle
	err    error
	ports  []int
}

func (c *fakeConnector) Connect(_ context.Context, port int, _ tunnel.Protocol) (tunnel.Handle, error) {
	c.ports = append(c.ports, port)
	if c.err != nil {
		return nil, c.err
	}
	return c.handle, nil
}

// newTestEnv returns an environment that touches nothing outside the process.
func newTestEnv(id string, installed bool) (*environment, *fakeRunner, *bytes.Buffer) {
	runner := &fakeRunner{}
	out := &bytes.Buffer{}
	return &environment{
		stdin:     strings.NewReader(""),
		stdout:    out,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		info:      platform.Info{ID: id, Family: "debian"},
		runner:    runner,
		probe:     fakeProbe(installed),
		connector: &fakeConnector{},
	}, runner, out
}

func freePort(t *testing.T) int {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(t.Context(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestEnsureTor(t *testing.T) {
	t.Parallel()

	t.Run("unsupported platform runs nothing", func(t *testing.T) {
		t.Parallel()

		env, runner, _ := newTestEnv("android", false)
		_, err := ensureTor(t.Context(), config.NewConfig(), env)
		if !errors.Is(err, platform.ErrUnsupportedPlatform) {
			t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
		}
		if len(runner.calls) != 0 {
			t.Errorf("expected no commands, got %v", runner.calls)
		}
	})

	t.Run("missing tor is installed then restarted", func(t *testing.T) {
		t.Parallel()

		for _, id := range []string{"linux", "darwin", "windows"} {
			env, runner, out := newTestEnv(id, false)
			result, err := ensureTor(t.Context(), config.NewConfig(), env)
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", id, err)
			}
			if result.Outcome != tor.OutcomeInstalled {
				t.Errorf("%s: outcome = %v, want installed", id, result.Outcome)
			}
			if len(runner.calls) != 2 {
				t.Errorf("%s: expected install and start, got %v", id, runner.calls)
			}
			for _, msg := range []string{tor.MessageInstalled, tor.MessageRestarted} {
				if !strings.Contains(out.String(), msg) {
					t.Errorf("%s: expected %q in output %q", id, msg, out.String())
				}
			}
		}
	})

	t.Run("failed install never starts the service", func(t *testing.T) {
		t.Parallel()

		env, runner, out := newTestEnv("darwin", false)
		runner.fail = map[string]error{"install": errors.New("brew: not found")}

		_, err := ensureTor(t.Context(), config.NewConfig(), env)
		if !errors.Is(err, tor.ErrInstallFailed) {
			t.Fatalf("expected ErrInstallFailed, got %v", err)
		}
		if len(runner.calls) != 1 {
			t.Errorf("expected only the install attempt, got %v", runner.calls)
		}
		if strings.Contains(out.String(), tor.MessageRestarted) {
			t.Error("restart message printed after failed install")
		}
	})

	t.Run("configured names reach the commands", func(t *testing.T) {
		t.Parallel()

		env, runner, _ := newTestEnv("linux", false)
		cfg := config.NewConfig()
		cfg.TorPackageName = "tor-geoipdb"
		cfg.TorServiceName = "tor@default"

		if _, err := ensureTor(t.Context(), cfg, env); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		joined := fmt.Sprint(runner.calls)
		if !strings.Contains(joined, "tor-geoipdb") || !strings.Contains(joined, "tor@default") {
			t.Errorf("expected custom names in %v", runner.calls)
		}
	})
}

func TestOpenTunnel(t *testing.T) {
	t.Parallel()

	t.Run("prompt answer 1 opens a public tunnel", func(t *testing.T) {
		t.Parallel()

		env, _, out := newTestEnv("linux", true)
		env.stdin = strings.NewReader("1\n")
		connector := &fakeConnector{handle: &fakeHandle{url: "https://abc.ngrok.app"}}
		env.connector = connector

		_, handle, err := openTunnel(t.Context(), config.NewConfig(), env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if handle == nil || len(connector.ports) != 1 || connector.ports[0] != config.DefaultPort {
			t.Fatalf("expected one connect to port %d, got %v", config.DefaultPort, connector.ports)
		}
		if !strings.Contains(out.String(), "Ngrok Public URL https://abc.ngrok.app") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("prompt answer 2 stays private", func(t *testing.T) {
		t.Parallel()

		env, _, out := newTestEnv("linux", true)
		env.stdin = strings.NewReader("2\n")
		connector := &fakeConnector{}
		env.connector = connector

		_, handle, err := openTunnel(t.Context(), config.NewConfig(), env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if handle != nil || len(connector.ports) != 0 {
			t.Error("private mode must not open a tunnel")
		}
		if !strings.Contains(out.String(), "Private URL : http://localhost:8088") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("configured mode skips the prompt", func(t *testing.T) {
		t.Parallel()

		env, _, out := newTestEnv("linux", true)
		cfg := config.NewConfig()
		cfg.Mode = config.ModePrivate
		cfg.Port = 9999

		if _, _, err := openTunnel(t.Context(), cfg, env); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out.String(), "public") {
			t.Errorf("unexpected prompt in output %q", out.String())
		}
		if !strings.Contains(out.String(), "Private URL : http://localhost:9999") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("connect failure is returned", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv("linux", true)
		boom := errors.New("authentication failed")
		env.connector = &fakeConnector{err: boom}
		cfg := config.NewConfig()
		cfg.Mode = config.ModePublic

		if _, _, err := openTunnel(t.Context(), cfg, env); !errors.Is(err, boom) {
			t.Errorf("expected %v, got %v", boom, err)
		}
	})

	t.Run("bad protocol and mode", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv("linux", true)
		cfg := config.NewConfig()
		cfg.Protocol = "udp"
		if _, _, err := openTunnel(t.Context(), cfg, env); !errors.Is(err, tunnel.ErrUnknownProtocol) {
			t.Errorf("expected ErrUnknownProtocol, got %v", err)
		}

		cfg = config.NewConfig()
		cfg.Mode = "hidden"
		if _, _, err := openTunnel(t.Context(), cfg, env); !errors.Is(err, tunnel.ErrUnknownMode) {
			t.Errorf("expected ErrUnknownMode, got %v", err)
		}
	})
}

type plainHandle struct{}

func (plainHandle) URL() string  { return "tcp://0.tcp.ngrok.io:12345" }
func (plainHandle) Close() error { return nil }

func TestWaitTunnel(t *testing.T) {
	t.Parallel()

	t.Run("tunnel end is an error", func(t *testing.T) {
		t.Parallel()

		h := &fakeHandle{waitCh: make(chan error, 1)}
		h.waitCh <- errors.New("session closed")
		if err := waitTunnel(t.Context(), h); !errors.Is(err, errTunnelClosed) {
			t.Errorf("expected errTunnelClosed, got %v", err)
		}
	})

	t.Run("context end is not an error", func(t *testing.T) {
		t.Parallel()

		h := &fakeHandle{waitCh: make(chan error, 1)}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if err := waitTunnel(ctx, h); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		h.waitCh <- nil
	})

	t.Run("handle without Wait blocks on context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		if err := waitTunnel(ctx, plainHandle{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestFetchClient(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.NewConfig()
	cfg.FetchTimeout = time.Second
	client, err := fetchClient(cfg, "127.0.0.1:9050", logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", client.Timeout)
	}
	if _, ok := client.Transport.(*http.Transport); !ok {
		t.Errorf("expected SOCKS transport, got %T", client.Transport)
	}

	if _, err := fetchClient(cfg, "not-an-address", logger); !errors.Is(err, tor.ErrInvalidProxyAddress) {
		t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
	}

	cfg.FetchViaTor = false
	client, err = fetchClient(cfg, "not-an-address", logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Transport != nil {
		t.Error("direct client should use the default transport")
	}
}

func TestRunServe(t *testing.T) {
	t.Parallel()

	t.Run("private mode serves until cancelled", func(t *testing.T) {
		t.Parallel()

		env, runner, out := newTestEnv("linux", true)
		cfg := config.NewConfig()
		cfg.Host = "127.0.0.1"
		cfg.Port = freePort(t)
		cfg.Mode = config.ModePrivate
		cfg.SkipTor = true

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- runServe(ctx, cfg, env) }()

		url := fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Port)
		deadline := time.Now().Add(5 * time.Second)
		for {
			req, _ := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
			resp, err := http.DefaultClient.Do(req)
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					t.Errorf("healthz status = %d", resp.StatusCode)
				}
				break
			}
			if time.Now().After(deadline) {
				cancel()
				t.Fatalf("server never came up: %v", err)
			}
			time.Sleep(20 * time.Millisecond)
		}

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("runServe did not return")
		}

		if len(runner.calls) != 0 {
			t.Errorf("skip-tor must not run commands, got %v", runner.calls)
		}
		want := fmt.Sprintf("Private URL : http://localhost:%d", cfg.Port)
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output %q", want, out.String())
		}
	})

	t.Run("tunnel end stops the server and closes the tunnel", func(t *testing.T) {
		t.Parallel()

		env, _, _ := newTestEnv("linux", true)
		handle := &fakeHandle{url: "https://abc.ngrok.app", waitCh: make(chan error, 1)}
		env.connector = &fakeConnector{handle: handle}
		cfg := config.NewConfig()
		cfg.Host = "127.0.0.1"
		cfg.Port = freePort(t)
		cfg.Mode = config.ModePublic
		cfg.SkipTor = true

		handle.waitCh <- errors.New("session closed")
		err := runServe(t.Context(), cfg, env)
		if !errors.Is(err, errTunnelClosed) {
			t.Fatalf("expected errTunnelClosed, got %v", err)
		}
		if handle.closeCount() != 1 {
			t.Errorf("expected the tunnel to be closed once, got %d", handle.closeCount())
		}
	})

	t.Run("failed tor install stops before the server", func(t *testing.T) {
		t.Parallel()

		env, runner, out := newTestEnv("windows", false)
		runner.fail = map[string]error{"choco": errors.New("choco missing")}
		connector := &fakeConnector{}
		env.connector = connector
		cfg := config.NewConfig()
		cfg.Mode = config.ModePublic

		if err := runServe(t.Context(), cfg, env); !errors.Is(err, tor.ErrInstallFailed) {
			t.Fatalf("expected ErrInstallFailed, got %v", err)
		}
		if len(connector.ports) != 0 {
			t.Error("tunnel opened after failed install")
		}
		if strings.Contains(out.String(), "URL") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("unsupported platform fails fast", func(t *testing.T) {
		t.Parallel()

		env, runner, _ := newTestEnv("android", false)
		if err := runServe(t.Context(), config.NewConfig(), env); !errors.Is(err, platform.ErrUnsupportedPlatform) {
			t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
		}
		if len(runner.calls) != 0 {
			t.Errorf("expected no commands, got %v", runner.calls)
		}
	})
}

func TestRunServe_CancelAtPrompt(t *testing.T) {
	t.Parallel()

	env, _, out := newTestEnv("linux", true)
	pr, pw := io.Pipe()
	t.Cleanup(func() {
		_ = pw.Close()
		_ = pr.Close()
	})
	env.stdin = pr
	connector := &fakeConnector{}
	env.connector = connector
	cfg := config.NewConfig()
	cfg.SkipTor = true

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, env) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !interrupted(ctx, err) {
			t.Error("expected cancellation to count as an interrupt")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe still waiting on the prompt after cancel")
	}
	if len(connector.ports) != 0 {
		t.Error("tunnel opened after cancel")
	}
	if strings.Contains(out.String(), "URL") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestInterrupted(t *testing.T) {
	t.Parallel()

	live := t.Context()
	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want bool
	}{
		{"no error", cancelled, nil, false},
		{"cancelled by signal", cancelled, fmt.Errorf("prompt: %w", context.Canceled), true},
		{"other error after signal", cancelled, errTunnelClosed, false},
		{"canceled error with live context", live, context.Canceled, false},
	}
	for _, tt := range tests {
		if got := interrupted(tt.ctx, tt.err); got != tt.want {
			t.Errorf("%s: interrupted() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
