package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/torserve/internal/config"
	"github.com/nao1215/torserve/internal/server"
	"github.com/nao1215/torserve/internal/tor"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Ensure Tor is running, pick public or private mode and serve HTTP",
		Long: `Serve runs the whole startup sequence:

  1. Detect the host platform (linux, darwin or windows; anything else fails).
  2. Install Tor with the platform package manager if it is missing, then
     restart the Tor service.
  3. Ask whether the server should be public (1) or private (anything else),
     unless --mode is given.
  4. In public mode, open an ngrok tunnel to the server port and print its URL.
  5. Serve HTTP until interrupted, then close the tunnel.

Examples:
  # Ask on the console
  torserve serve

  # Public over an HTTP tunnel, token from the environment
  NGROK_AUTHTOKEN=... torserve serve --mode public

  # Private, using a bundled Tor process instead of the system service
  torserve serve --mode private --embedded-tor`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addServeFlags(cmd)
	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger, closer, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(gin.ReleaseMode)
	err = runServe(ctx, cfg, newEnvironment(ctx, cmd, cfg, logger))
	if interrupted(ctx, err) {
		logger.Info("interrupted")
		return nil
	}
	return err
}

// interrupted reports whether err only says that ctx was cancelled by a signal.
func interrupted(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled)
}

// runServe is the serve sequence with its collaborators injected.
func runServe(ctx context.Context, cfg *config.Config, env *environment) error {
	proxyAddr, cleanup, err := prepareTor(ctx, cfg, env)
	if err != nil {
		return err
	}
	defer cleanup()

	launcher, handle, err := openTunnel(ctx, cfg, env)
	if err != nil {
		return err
	}
	defer launcher.Close(handle)

	client, err := fetchClient(cfg, proxyAddr, env.logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Host:    cfg.Host,
		Port:    cfg.Port,
		Version: getVersion(),
		ViaTor:  cfg.FetchViaTor,
	}, server.NewFetcher(client, env.logger), env.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if handle != nil {
		g.Go(func() error {
			return waitTunnel(gctx, handle)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	env.logger.Info("server stopped")
	return nil
}

// prepareTor makes a Tor SOCKS proxy available according to cfg and returns
// its address with a cleanup function.
func prepareTor(ctx context.Context, cfg *config.Config, env *environment) (string, func(), error) {
	noop := func() {}

	switch {
	case cfg.SkipTor:
		env.logger.Info("skipping tor install and start", "proxy", cfg.TorProxyAddress)
		return cfg.TorProxyAddress, noop, nil

	case cfg.EmbeddedTor:
		embedded := tor.NewEmbeddedTor(tor.WithStartupTimeout(cfg.TorStartupTimeout))
		fmt.Fprintln(env.stdout, "Starting embedded Tor daemon (this may take a few minutes)...")
		if err := embedded.Start(ctx); err != nil {
			return "", noop, err
		}
		env.logger.Info("embedded tor started", "socks", embedded.SocksAddr(), "control", embedded.ControlAddr())
		stopEmbedded := func() {
			if err := embedded.Stop(); err != nil {
				env.logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		if cfg.VerifyTor {
			client, err := embedded.NewClient(0)
			if err != nil {
				stopEmbedded()
				return "", noop, err
			}
			status := client.CheckConnection(ctx)
			if status.Error() != nil {
				env.logger.Warn("embedded Tor proxy check failed", "status", status.String())
			}
			fmt.Fprintf(env.stdout, "SOCKS proxy %s: %s\n", embedded.SocksAddr(), status)
		}
		return embedded.SocksAddr(), stopEmbedded, nil

	default:
		if _, err := ensureTor(ctx, cfg, env); err != nil {
			return "", noop, err
		}
		return cfg.TorProxyAddress, noop, nil
	}
}

// fetchClient returns the HTTP client for the passthrough endpoint.
func fetchClient(cfg *config.Config, proxyAddr string, logger *slog.Logger) (*http.Client, error) {
	if !cfg.FetchViaTor {
		logger.Debug("passthrough fetches go direct")
		return &http.Client{Timeout: cfg.FetchTimeout}, nil
	}
	client, err := tor.NewClient(proxyAddr, cfg.FetchTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create Tor client: %w", err)
	}
	return client.NewHTTPClient(), nil
}
