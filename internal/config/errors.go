package config

import "errors"

// Configuration validation errors returned by Config.Validate().
// They are sentinels so callers can match them with errors.Is().
var (
	// ErrInvalidPort is returned when the server port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidMode is returned when the tunnel mode is neither "public" nor "private".
	// An empty mode is valid and means "ask on the console".
	ErrInvalidMode = errors.New("invalid mode: must be \"public\" or \"private\"")

	// ErrInvalidProtocol is returned when the tunnel protocol is neither "http" nor "tcp".
	ErrInvalidProtocol = errors.New("invalid tunnel protocol: must be \"http\" or \"tcp\"")

	// ErrInvalidTimeout is returned when a timeout is negative.
	// Zero means no timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidProxyAddress is returned when the Tor SOCKS address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid Tor proxy address: expected host:port")

	// ErrConflictingTorModes is returned when --embedded-tor and --skip-tor are both set.
	ErrConflictingTorModes = errors.New("conflicting Tor options: --embedded-tor and --skip-tor cannot be used together")
)
