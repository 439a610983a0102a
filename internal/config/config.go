package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "torserve"

	// DefaultHost is the address the HTTP server binds to.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the HTTP server port. The private URL printed on the
	// console is derived from it (http://localhost:8088).
	DefaultPort = 8088

	// DefaultProtocol is the tunnel protocol used in public mode.
	DefaultProtocol = "http"

	// DefaultTorProxyAddress is the SOCKS port of a system Tor daemon.
	// 127.0.0.1 avoids resolving localhost to ::1 on some systems.
	DefaultTorProxyAddress = "127.0.0.1:9050"

	// DefaultTorServiceName is the service unit managed by the OS handlers.
	DefaultTorServiceName = "tor"

	// DefaultTorPackageName is the package installed by the OS handlers.
	DefaultTorPackageName = "tor"

	// DefaultTorStartupTimeout bounds the embedded Tor bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// NgrokAuthtokenEnv is the environment variable consulted when no
	// authtoken is configured.
	NgrokAuthtokenEnv = "NGROK_AUTHTOKEN"
)

// Mode values accepted in configuration. An empty mode means the user is
// asked on the console.
const (
	ModePublic  = "public"
	ModePrivate = "private"
)

// Config holds all configuration options for torserve.
// It is populated from defaults, then the config file, then CLI flags, and
// passed down explicitly rather than kept in globals.
type Config struct {
	// Host is the bind address of the HTTP server.
	Host string

	// Port is the HTTP server port and the local port exposed by the tunnel.
	Port int

	// Mode is "public", "private", or empty to prompt on the console.
	Mode string

	// Protocol is the tunnel protocol, "http" or "tcp".
	Protocol string

	// NgrokAuthtoken authenticates the tunnel session.
	// Falls back to $NGROK_AUTHTOKEN when empty.
	NgrokAuthtoken string

	// TorProxyAddress is the SOCKS5 address of the Tor daemon in "host:port" format.
	TorProxyAddress string

	// TorServiceName is the name passed to the platform service manager.
	TorServiceName string

	// TorPackageName is the name passed to the platform package manager.
	TorPackageName string

	// SkipTor disables the install/start flow entirely.
	SkipTor bool

	// EmbeddedTor launches a private Tor process instead of the system service.
	EmbeddedTor bool

	// VerifyTor runs a SOCKS5 handshake against TorProxyAddress after the
	// service has been started and reports the result.
	VerifyTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded daemon.
	TorStartupTimeout time.Duration

	// FetchViaTor routes the passthrough endpoint through the Tor SOCKS proxy.
	FetchViaTor bool

	// FetchTimeout bounds one passthrough request. Zero means no timeout.
	FetchTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// LogFile, when set, receives log output through a rotating writer.
	LogFile string

	// LogJSON switches the log format from text to JSON.
	LogJSON bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		Protocol:          DefaultProtocol,
		TorProxyAddress:   DefaultTorProxyAddress,
		TorServiceName:    DefaultTorServiceName,
		TorPackageName:    DefaultTorPackageName,
		TorStartupTimeout: DefaultTorStartupTimeout,
		FetchViaTor:       true,
	}
}

// Authtoken returns the configured ngrok authtoken, falling back to the
// NGROK_AUTHTOKEN environment variable.
func (c *Config) Authtoken() string {
	if c.NgrokAuthtoken != "" {
		return c.NgrokAuthtoken
	}
	return os.Getenv(NgrokAuthtokenEnv)
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// XDGConfigDir returns the XDG config directory for torserve.
// On Linux: ~/.config/torserve
// On macOS: ~/Library/Application Support/torserve
// On Windows: %APPDATA%\torserve
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}

	switch c.Mode {
	case "", ModePublic, ModePrivate:
	default:
		return ErrInvalidMode
	}

	switch c.Protocol {
	case "http", "tcp":
	default:
		return ErrInvalidProtocol
	}

	if c.FetchTimeout < 0 || c.TorStartupTimeout < 0 {
		return ErrInvalidTimeout
	}

	if _, port, err := net.SplitHostPort(c.TorProxyAddress); err != nil || port == "" {
		return ErrInvalidProxyAddress
	}

	if c.EmbeddedTor && c.SkipTor {
		return ErrConflictingTorModes
	}

	return nil
}
