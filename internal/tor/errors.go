package tor

import (
	"errors"
	"fmt"
)

// Proxy verification errors.
var (
	// ErrProxyNotTor is returned when the proxy answers but does not behave
	// like a Tor SOCKS5 port.
	ErrProxyNotTor = errors.New("proxy is not a Tor SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// could be made. Usually the daemon is not running yet.
	ErrProxyCannotConnect = errors.New("cannot connect to Tor proxy")

	// ErrProxyTimeout is returned when the proxy handshake timed out.
	ErrProxyTimeout = errors.New("timeout connecting to Tor proxy")

	// ErrInvalidProxyAddress is returned for proxy addresses that are not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Lifecycle errors.
var (
	// ErrInstallFailed is matched by every *InstallError.
	ErrInstallFailed = errors.New("failed to install Tor")

	// ErrEmbeddedNotRunning is returned when a client is requested from an
	// embedded daemon that was never started or has been stopped.
	ErrEmbeddedNotRunning = errors.New("embedded Tor daemon is not running")
)

// InstallError reports that the package manager could not install Tor.
// The service is never started after an InstallError.
type InstallError struct {
	// Platform is the platform identifier the install ran on.
	Platform string

	// Err is the underlying failure, usually a *platform.CommandError.
	Err error
}

// Error implements error.
func (e *InstallError) Error() string {
	return fmt.Sprintf("%v on %s: %v", ErrInstallFailed, e.Platform, e.Err)
}

// Unwrap returns the cause.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Is reports ErrInstallFailed as a match.
func (e *InstallError) Is(target error) bool {
	return target == ErrInstallFailed
}

// ProxyStatus is the result of a SOCKS5 handshake against the Tor proxy.
type ProxyStatus int

const (
	// ProxyStatusOK indicates a working Tor SOCKS5 proxy.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType indicates something answered that is not Tor.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect indicates no connection could be made.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the handshake timed out.
	ProxyStatusTimeout

	// ProxyStatusUnchecked indicates verification was not requested.
	ProxyStatusUnchecked
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not Tor)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	case ProxyStatusUnchecked:
		return "not checked"
	default:
		return "unknown"
	}
}

// Error returns the error for this status, or nil when the proxy is fine
// or was not checked.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK, ProxyStatusUnchecked:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotTor
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}
