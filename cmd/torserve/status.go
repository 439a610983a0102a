package main

import (
	"context"
	"errors"
	"time"

	"github.com/nao1215/torserve/internal/config"
	"github.com/nao1215/torserve/internal/platform"
	"github.com/nao1215/torserve/internal/report"
	"github.com/nao1215/torserve/internal/tor"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show platform, Tor and server settings",
		Long: `Status reports the detected platform, whether Tor is installed, whether
the SOCKS5 proxy answers like Tor, and the effective server settings.
Nothing is installed or started.

Examples:
  torserve status
  torserve status --markdown > status.md
  torserve status --json`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().String("tor-proxy", config.DefaultTorProxyAddress, "Tor SOCKS5 proxy address")
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := cmd.Context()
	env := newEnvironment(ctx, cmd, cfg, logger)
	status := collectStatus(ctx, cfg, env)

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	var w report.Writer
	switch {
	case asJSON:
		w = report.NewJSONWriter(env.stdout, report.WithPrettyPrint())
	case asMarkdown:
		w = report.NewMarkdownWriter(env.stdout)
	default:
		w = report.NewTextWriter(env.stdout)
	}
	_, err = w.Write(status)
	return err
}

// collectStatus gathers a report without changing anything on the host.
func collectStatus(ctx context.Context, cfg *config.Config, env *environment) *report.Status {
	status := &report.Status{
		Platform:     env.info,
		TorInstalled: env.probe.Installed(ctx),
		ProxyAddress: cfg.TorProxyAddress,
		Proxy:        tor.ProxyStatusUnchecked,
		ListenAddr:   cfg.ListenAddr(),
		Mode:         cfg.Mode,
		Protocol:     cfg.Protocol,
		AuthtokenSet: cfg.Authtoken() != "",
		ConfigFile:   cfg.ConfigFilePath,
		CheckedAt:    time.Now(),
	}

	if _, err := env.resolveHandler(cfg); err == nil {
		status.Supported = true
	} else if !errors.Is(err, platform.ErrUnsupportedPlatform) {
		env.logger.Warn("failed to resolve platform handler", "error", err)
	}

	if client, err := tor.NewClient(cfg.TorProxyAddress, 0); err == nil {
		status.Proxy = client.CheckConnection(ctx)
	} else {
		env.logger.Warn("cannot check Tor proxy", "error", err)
	}
	return status
}
