package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/torserve/internal/config"
	"github.com/nao1215/torserve/internal/platform"
	"github.com/nao1215/torserve/internal/tor"
	"github.com/nao1215/torserve/internal/tunnel"
	"github.com/spf13/cobra"
)

// environment is everything the commands reach outside the process through.
// Tests replace the fields with fakes.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	logger *slog.Logger

	// info is the detected host platform.
	info platform.Info

	// runner executes package and service manager commands.
	runner platform.Runner

	// probe reports whether Tor is installed.
	probe tor.Probe

	// connector opens public tunnels.
	connector tunnel.Connector
}

// newEnvironment wires the real host: os/exec, gopsutil, PATH lookups and ngrok.
func newEnvironment(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) *environment {
	info, err := platform.Detect(ctx)
	if err != nil {
		logger.Debug("host details unavailable", "error", err)
	}

	return &environment{
		stdin:     cmd.InOrStdin(),
		stdout:    cmd.OutOrStdout(),
		logger:    logger,
		info:      info,
		runner:    &platform.ExecRunner{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()},
		probe:     platform.NewLookPathProbe(),
		connector: tunnel.NewNgrokConnector(cfg.Authtoken()),
	}
}

// resolveHandler returns the platform handler configured from cfg.
func (e *environment) resolveHandler(cfg *config.Config) (platform.Handler, error) {
	handler, err := platform.Resolve(e.info.ID,
		platform.WithRunner(e.runner),
		platform.WithFamily(e.info.Family),
		platform.WithServiceName(cfg.TorServiceName),
		platform.WithPackageName(cfg.TorPackageName),
	)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("platform resolved", "platform", handler.ID(), "family", e.info.Family)
	return handler, nil
}

// ensureTor runs the install/start pass against the system service.
func ensureTor(ctx context.Context, cfg *config.Config, env *environment) (tor.Result, error) {
	handler, err := env.resolveHandler(cfg)
	if err != nil {
		return tor.Result{}, err
	}

	opts := []tor.OrchestratorOption{
		tor.WithOutput(env.stdout),
		tor.WithLogger(env.logger),
	}
	if cfg.VerifyTor {
		client, err := tor.NewClient(cfg.TorProxyAddress, 0)
		if err != nil {
			return tor.Result{}, err
		}
		opts = append(opts, tor.WithVerifier(client))
	}

	result, err := tor.NewOrchestrator(env.probe, opts...).EnsureRunning(ctx, handler)
	if err != nil {
		return result, err
	}
	env.logger.Info("tor ready",
		"outcome", result.Outcome.String(),
		"proxy", result.Verified.String(),
	)
	return result, nil
}

// errTunnelClosed is returned when the tunnel ends while the server is running.
var errTunnelClosed = errors.New("tunnel closed")

// openTunnel applies the configured mode, or asks on the console when none is set.
func openTunnel(ctx context.Context, cfg *config.Config, env *environment) (*tunnel.Launcher, tunnel.Handle, error) {
	proto, err := tunnel.ParseProtocol(cfg.Protocol)
	if err != nil {
		return nil, nil, err
	}
	launcher := tunnel.NewLauncher(env.connector,
		tunnel.WithProtocol(proto),
		tunnel.WithOutput(env.stdout),
		tunnel.WithLogger(env.logger),
	)

	if cfg.Mode == "" {
		handle, err := launcher.Prompt(ctx, env.stdin, cfg.Port)
		return launcher, handle, err
	}

	mode, err := tunnel.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, err
	}
	handle, err := launcher.Start(ctx, cfg.Port, mode)
	return launcher, handle, err
}

// waitTunnel blocks until ctx is done or the tunnel stops forwarding.
// Handles that cannot report their end only wait for ctx.
func waitTunnel(ctx context.Context, handle tunnel.Handle) error {
	waiter, ok := handle.(interface{ Wait() error })
	if !ok {
		<-ctx.Done()
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- waiter.Wait() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", errTunnelClosed, err)
		}
		return errTunnelClosed
	}
}
