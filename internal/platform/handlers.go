package platform

import "context"

// LinuxHandler installs Tor with the distribution's package manager and
// restarts it through the init system.
type LinuxHandler struct {
	runner  Runner
	install command
	start   command
}

// packageManager maps gopsutil platform families to install commands.
// The package name is appended. Unknown families use apt-get.
var packageManager = map[string][]string{
	"debian": {"apt-get", "install", "-y"},
	"rhel":   {"dnf", "install", "-y"},
	"fedora": {"dnf", "install", "-y"},
	"suse":   {"zypper", "--non-interactive", "install"},
	"arch":   {"pacman", "-S", "--noconfirm"},
	"alpine": {"apk", "add"},
}

func newLinuxHandler(o options) *LinuxHandler {
	installArgs, ok := packageManager[o.family]
	if !ok {
		installArgs = packageManager["debian"]
	}
	installArgs = append(append([]string{}, installArgs...), o.pkg)

	// Alpine runs OpenRC, everything else in the table uses systemd.
	startArgs := []string{"systemctl", "restart", o.service}
	if o.family == "alpine" {
		startArgs = []string{"rc-service", o.service, "restart"}
	}

	return &LinuxHandler{
		runner:  o.runner,
		install: privileged(o.sudo, installArgs),
		start:   privileged(o.sudo, startArgs),
	}
}

func privileged(sudo bool, argv []string) command {
	if sudo {
		return command{name: "sudo", args: argv}
	}
	return command{name: argv[0], args: argv[1:]}
}

// ID implements Handler.
func (h *LinuxHandler) ID() ID { return Linux }

// Install implements Handler.
func (h *LinuxHandler) Install(ctx context.Context) error {
	return h.install.run(ctx, h.runner)
}

// Start implements Handler.
func (h *LinuxHandler) Start(ctx context.Context) error {
	return h.start.run(ctx, h.runner)
}

func (h *LinuxHandler) sealed() {}

// DarwinHandler uses Homebrew for both installation and the service.
type DarwinHandler struct {
	runner  Runner
	service string
	pkg     string
}

// ID implements Handler.
func (h *DarwinHandler) ID() ID { return Darwin }

// Install implements Handler.
func (h *DarwinHandler) Install(ctx context.Context) error {
	return h.runner.Run(ctx, "brew", "install", h.pkg)
}

// Start implements Handler.
func (h *DarwinHandler) Start(ctx context.Context) error {
	return h.runner.Run(ctx, "brew", "services", "restart", h.service)
}

func (h *DarwinHandler) sealed() {}

// WindowsHandler installs with Chocolatey and starts the registered service
// through the service control manager.
type WindowsHandler struct {
	runner  Runner
	service string
	pkg     string
}

// ID implements Handler.
func (h *WindowsHandler) ID() ID { return Windows }

// Install implements Handler.
func (h *WindowsHandler) Install(ctx context.Context) error {
	return h.runner.Run(ctx, "choco", "install", h.pkg, "-y")
}

// Start implements Handler.
func (h *WindowsHandler) Start(ctx context.Context) error {
	return h.runner.Run(ctx, "net", "start", h.service)
}

func (h *WindowsHandler) sealed() {}
