package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrUnsupportedPlatform is returned by Resolve for platform identifiers
// that have no handler.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ID identifies a supported host operating system. Values match runtime.GOOS.
type ID string

// Supported platforms.
const (
	Linux   ID = "linux"
	Darwin  ID = "darwin"
	Windows ID = "windows"
)

// String returns the identifier.
func (id ID) String() string {
	return string(id)
}

// Handler installs and starts the Tor daemon on one platform.
// The set of implementations is closed: LinuxHandler, DarwinHandler and
// WindowsHandler.
type Handler interface {
	// ID returns the platform this handler serves.
	ID() ID

	// Install installs the daemon package non-interactively.
	Install(ctx context.Context) error

	// Start (re)starts the daemon service. Success means the service manager
	// accepted the command, not that the daemon is serving yet.
	Start(ctx context.Context) error

	sealed()
}

// options holds what Resolve passes to every handler.
type options struct {
	runner  Runner
	family  string
	service string
	pkg     string
	sudo    bool
}

// Option configures Resolve.
type Option func(*options)

// WithRunner sets the command runner. Defaults to an ExecRunner.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithFamily sets the Linux platform family ("debian", "rhel", "arch", ...)
// used to pick the package manager. Ignored on other platforms.
func WithFamily(family string) Option {
	return func(o *options) {
		o.family = family
	}
}

// WithServiceName overrides the service name (default "tor").
func WithServiceName(name string) Option {
	return func(o *options) {
		o.service = name
	}
}

// WithPackageName overrides the package name (default "tor").
func WithPackageName(name string) Option {
	return func(o *options) {
		o.pkg = name
	}
}

// WithSudo controls whether Linux commands are prefixed with sudo.
// The default is to use sudo unless running as root.
func WithSudo(enabled bool) Option {
	return func(o *options) {
		o.sudo = enabled
	}
}

// Resolve returns the handler for platformID.
// Unknown identifiers return an error wrapping ErrUnsupportedPlatform.
func Resolve(platformID string, opts ...Option) (Handler, error) {
	o := options{
		service: "tor",
		pkg:     "tor",
		sudo:    os.Geteuid() != 0,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runner == nil {
		o.runner = NewExecRunner()
	}

	switch ID(platformID) {
	case Linux:
		return newLinuxHandler(o), nil
	case Darwin:
		return &DarwinHandler{runner: o.runner, service: o.service, pkg: o.pkg}, nil
	case Windows:
		return &WindowsHandler{runner: o.runner, service: o.service, pkg: o.pkg}, nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnsupportedPlatform, platformID, Supported())
	}
}

// Supported returns the platform identifiers Resolve accepts.
func Supported() []ID {
	return []ID{Linux, Darwin, Windows}
}

// command is one external program invocation.
type command struct {
	name string
	args []string
}

func (c command) run(ctx context.Context, r Runner) error {
	return r.Run(ctx, c.name, c.args...)
}
