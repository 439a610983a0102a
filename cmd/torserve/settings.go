package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/torserve/internal/config"
	"github.com/nao1215/torserve/internal/log"
	"github.com/spf13/cobra"
)

// addServeFlags registers the flags shared by the root command and serve.
func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", config.DefaultPort, "HTTP server port")
	cmd.Flags().String("host", config.DefaultHost, "HTTP server bind address")
	cmd.Flags().StringP("mode", "m", "",
		`"public" or "private" (default: ask on the console)`)
	cmd.Flags().String("protocol", config.DefaultProtocol, `Tunnel protocol, "http" or "tcp"`)

	addTorFlags(cmd)
	cmd.Flags().Bool("embedded-tor", false,
		"Launch a private Tor process instead of installing the system service")
	cmd.Flags().Bool("skip-tor", false, "Do not install or start Tor")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().Duration("fetch-timeout", 0, "Timeout for one passthrough request (0 = none)")
	cmd.Flags().Bool("direct-fetch", false, "Fetch passthrough targets directly instead of through Tor")
}

// addTorFlags registers the flags used by every command that touches Tor.
func addTorFlags(cmd *cobra.Command) {
	cmd.Flags().String("tor-proxy", config.DefaultTorProxyAddress, "Tor SOCKS5 proxy address")
	cmd.Flags().Bool("verify-tor", false, "Check the SOCKS5 proxy after restarting Tor")
}

// changed reports whether the named flag exists on cmd and was set.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// buildConfig starts from defaults, applies the config file, then every
// flag the user actually set.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var explicitPath string
	if f := cmd.Flags().Lookup("config"); f != nil {
		explicitPath = f.Value.String()
	}
	if path := config.FindConfigFile(explicitPath); path != "" {
		cf, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cf.Apply(cfg)
		cfg.ConfigFilePath = path
	} else if explicitPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if changed(cmd, "port") {
		if cfg.Port, err = flags.GetInt("port"); err != nil {
			return err
		}
	}
	if changed(cmd, "host") {
		if cfg.Host, err = flags.GetString("host"); err != nil {
			return err
		}
	}
	if changed(cmd, "mode") {
		if cfg.Mode, err = flags.GetString("mode"); err != nil {
			return err
		}
	}
	if changed(cmd, "protocol") {
		if cfg.Protocol, err = flags.GetString("protocol"); err != nil {
			return err
		}
	}
	if changed(cmd, "tor-proxy") {
		if cfg.TorProxyAddress, err = flags.GetString("tor-proxy"); err != nil {
			return err
		}
	}
	if changed(cmd, "tor-timeout") {
		if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
			return err
		}
	}
	if changed(cmd, "fetch-timeout") {
		if cfg.FetchTimeout, err = flags.GetDuration("fetch-timeout"); err != nil {
			return err
		}
	}
	if changed(cmd, "verify-tor") {
		if cfg.VerifyTor, err = flags.GetBool("verify-tor"); err != nil {
			return err
		}
	}
	if changed(cmd, "embedded-tor") {
		if cfg.EmbeddedTor, err = flags.GetBool("embedded-tor"); err != nil {
			return err
		}
	}
	if changed(cmd, "skip-tor") {
		if cfg.SkipTor, err = flags.GetBool("skip-tor"); err != nil {
			return err
		}
	}
	if changed(cmd, "direct-fetch") {
		var direct bool
		if direct, err = flags.GetBool("direct-fetch"); err != nil {
			return err
		}
		cfg.FetchViaTor = !direct
	}

	if changed(cmd, "verbose") {
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return err
		}
	}
	if changed(cmd, "log-json") {
		if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
			return err
		}
	}
	if changed(cmd, "log-file") {
		if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
			return err
		}
	}
	return nil
}

// setupLogger builds the process logger and installs it as the slog default.
func setupLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := log.New(log.Options{
		Writer:  cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}
