package tor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/torserve/internal/platform"
)

// Status lines printed by the orchestrator.
const (
	MessageInstalled = "Installed Tor"
	MessageRestarted = "Tor service restarted successfully"
)

// Probe reports whether the Tor daemon is installed on the host.
type Probe interface {
	Installed(ctx context.Context) bool
}

// Verifier checks that a Tor SOCKS5 port is answering. *Client implements it.
type Verifier interface {
	CheckConnection(ctx context.Context) ProxyStatus
}

// InstallOutcome is what the install step did.
type InstallOutcome int

const (
	// OutcomeAlreadyPresent means the probe found Tor and nothing was installed.
	OutcomeAlreadyPresent InstallOutcome = iota

	// OutcomeInstalled means the package manager installed Tor.
	OutcomeInstalled

	// OutcomeInstallFailed means installation failed and the service was not started.
	OutcomeInstallFailed
)

// String returns the outcome name.
func (o InstallOutcome) String() string {
	switch o {
	case OutcomeAlreadyPresent:
		return "already present"
	case OutcomeInstalled:
		return "installed"
	case OutcomeInstallFailed:
		return "install failed"
	default:
		return "unknown"
	}
}

// Result describes one EnsureRunning pass.
type Result struct {
	Outcome InstallOutcome

	// Verified is the SOCKS5 check after start, or ProxyStatusUnchecked
	// when no verifier is configured.
	Verified ProxyStatus

	// Reason holds the install failure when Outcome is OutcomeInstallFailed.
	Reason error
}

// Orchestrator runs the install-then-start pass for the Tor daemon.
type Orchestrator struct {
	probe    Probe
	verifier Verifier
	out      io.Writer
	logger   *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithVerifier enables the SOCKS5 check after the service is restarted.
func WithVerifier(v Verifier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.verifier = v
	}
}

// WithOutput sets where status lines go. Defaults to os.Stdout.
func WithOutput(w io.Writer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.out = w
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator returns an orchestrator that asks probe whether Tor is installed.
func NewOrchestrator(probe Probe, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		probe:  probe,
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EnsureRunning installs Tor through handler when the probe cannot find it,
// then restarts the service. An install failure returns an *InstallError and
// the service is left alone. A start failure is returned as is.
func (o *Orchestrator) EnsureRunning(ctx context.Context, handler platform.Handler) (Result, error) {
	result := Result{Outcome: OutcomeAlreadyPresent, Verified: ProxyStatusUnchecked}

	if o.probe.Installed(ctx) {
		o.logger.Debug("tor already installed", "platform", handler.ID())
	} else {
		o.logger.Debug("tor not found, installing", "platform", handler.ID())
		if err := handler.Install(ctx); err != nil {
			installErr := &InstallError{Platform: handler.ID().String(), Err: err}
			result.Outcome = OutcomeInstallFailed
			result.Reason = installErr
			return result, installErr
		}
		result.Outcome = OutcomeInstalled
		fmt.Fprintln(o.out, MessageInstalled)
	}

	if err := handler.Start(ctx); err != nil {
		return result, fmt.Errorf("failed to start Tor service: %w", err)
	}
	fmt.Fprintln(o.out, MessageRestarted)

	if o.verifier != nil {
		result.Verified = o.verifier.CheckConnection(ctx)
		if err := result.Verified.Error(); err != nil {
			o.logger.Warn("tor service restarted but SOCKS proxy check failed",
				"status", result.Verified.String(), "error", err)
		}
	}

	return result, nil
}
