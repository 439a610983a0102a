package platform

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Info describes the host as seen at startup.
type Info struct {
	// ID is runtime.GOOS. It is the value handed to Resolve.
	ID string

	// Family is the distribution family on Linux ("debian", "rhel", ...).
	Family string

	// Name is the distribution or product name ("ubuntu", "darwin", ...).
	Name string

	// Version is the platform version string.
	Version string

	// Hostname is the host name.
	Hostname string
}

// DisplayName returns a human-readable platform name, e.g. "Ubuntu 24.04".
func (i Info) DisplayName() string {
	name := i.Name
	if name == "" {
		name = i.ID
	}
	name = cases.Title(language.English).String(name)
	if i.Version == "" {
		return name
	}
	return name + " " + i.Version
}

// Detect reads the platform identifier from runtime.GOOS and enriches it
// with gopsutil host information. A gopsutil failure is returned together
// with the partially filled Info so callers can still resolve a handler.
func Detect(ctx context.Context) (Info, error) {
	info := Info{ID: runtime.GOOS}

	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		return info, err
	}

	info.Family = hi.PlatformFamily
	info.Name = hi.Platform
	info.Version = hi.PlatformVersion
	info.Hostname = hi.Hostname
	return info, nil
}

// LookPathProbe reports whether the Tor binary is on PATH.
type LookPathProbe struct {
	// Binary is the executable name. Defaults to "tor" ("tor.exe" on Windows).
	Binary string

	lookPath func(string) (string, error)
}

// NewLookPathProbe returns a probe for the platform's Tor binary name.
func NewLookPathProbe() *LookPathProbe {
	binary := "tor"
	if runtime.GOOS == string(Windows) {
		binary = "tor.exe"
	}
	return &LookPathProbe{Binary: binary, lookPath: exec.LookPath}
}

// Installed implements the install-detection probe.
func (p *LookPathProbe) Installed(_ context.Context) bool {
	lookPath := p.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(p.Binary)
	return err == nil
}
