package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torserve",
		Short: "Serve HTTP next to a managed Tor daemon, optionally through ngrok",
		Long: `torserve installs and restarts the Tor daemon when needed, asks whether the
local HTTP server should be public or private, opens an ngrok tunnel in public
mode and then serves HTTP until interrupted.

Running torserve without a subcommand is the same as "torserve serve".

The server exposes GET /get?url=<target>, which fetches the target once
through the Tor SOCKS proxy and relays the response.`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServeCmd,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", "", "Also write logs to this file (rotated)")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .torserve in current or home directory)")

	addServeFlags(cmd)

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewTorCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
