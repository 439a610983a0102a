package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".torserve"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .torserve configuration file.
// Every field is optional; zero values leave the defaults untouched.
type File struct {
	Server ServerSection `yaml:"server,omitempty"`
	Tunnel TunnelSection `yaml:"tunnel,omitempty"`
	Tor    TorSection    `yaml:"tor,omitempty"`
	Fetch  FetchSection  `yaml:"fetch,omitempty"`
}

// ServerSection configures the local HTTP server.
type ServerSection struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// TunnelSection configures the ngrok tunnel.
type TunnelSection struct {
	// Mode is "public" or "private". Leave empty to be asked at startup.
	Mode      string `yaml:"mode,omitempty"`
	Protocol  string `yaml:"protocol,omitempty"`
	Authtoken string `yaml:"authtoken,omitempty"`
}

// TorSection configures the Tor daemon.
type TorSection struct {
	ProxyAddress   string        `yaml:"proxyAddress,omitempty"`
	Service        string        `yaml:"service,omitempty"`
	Package        string        `yaml:"package,omitempty"`
	Verify         bool          `yaml:"verify,omitempty"`
	Embedded       bool          `yaml:"embedded,omitempty"`
	Skip           bool          `yaml:"skip,omitempty"`
	StartupTimeout time.Duration `yaml:"startupTimeout,omitempty"`
}

// FetchSection configures the passthrough endpoint.
type FetchSection struct {
	// ViaTor is a pointer so that an explicit "false" can be told apart
	// from an absent key.
	ViaTor  *bool         `yaml:"viaTor,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LoadConfigFile loads a configuration file from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every non-zero value of the file onto the config.
func (cf *File) Apply(c *Config) {
	if cf.Server.Host != "" {
		c.Host = cf.Server.Host
	}
	if cf.Server.Port != 0 {
		c.Port = cf.Server.Port
	}

	if cf.Tunnel.Mode != "" {
		c.Mode = cf.Tunnel.Mode
	}
	if cf.Tunnel.Protocol != "" {
		c.Protocol = cf.Tunnel.Protocol
	}
	if cf.Tunnel.Authtoken != "" {
		c.NgrokAuthtoken = cf.Tunnel.Authtoken
	}

	if cf.Tor.ProxyAddress != "" {
		c.TorProxyAddress = cf.Tor.ProxyAddress
	}
	if cf.Tor.Service != "" {
		c.TorServiceName = cf.Tor.Service
	}
	if cf.Tor.Package != "" {
		c.TorPackageName = cf.Tor.Package
	}
	if cf.Tor.StartupTimeout != 0 {
		c.TorStartupTimeout = cf.Tor.StartupTimeout
	}
	c.VerifyTor = c.VerifyTor || cf.Tor.Verify
	c.EmbeddedTor = c.EmbeddedTor || cf.Tor.Embedded
	c.SkipTor = c.SkipTor || cf.Tor.Skip

	if cf.Fetch.ViaTor != nil {
		c.FetchViaTor = *cf.Fetch.ViaTor
	}
	if cf.Fetch.Timeout != 0 {
		c.FetchTimeout = cf.Fetch.Timeout
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .torserve in the current directory
// 3. Look for .torserve in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
