package tunnel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned by ParseMode for anything but public or private.
	ErrUnknownMode = errors.New("unknown tunnel mode")

	// ErrUnknownProtocol is returned by ParseProtocol for anything but http or tcp.
	ErrUnknownProtocol = errors.New("unknown tunnel protocol")

	// ErrNoAuthtoken is returned when a public tunnel is requested without
	// an ngrok authtoken.
	ErrNoAuthtoken = errors.New("ngrok authtoken is not set")
)

// Mode is the server's visibility.
type Mode string

const (
	// ModePublic exposes the server through a tunnel.
	ModePublic Mode = "public"

	// ModePrivate keeps the server on localhost only.
	ModePrivate Mode = "private"
)

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// choicePublic is the prompt answer selecting ModePublic.
const choicePublic = "1"

// ModeFromChoice maps a prompt answer to a mode: "1" is public, anything
// else is private. Surrounding whitespace is ignored.
func ModeFromChoice(choice string) Mode {
	if strings.TrimSpace(choice) == choicePublic {
		return ModePublic
	}
	return ModePrivate
}

// ParseMode parses a mode name from a flag or config file.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePublic, ModePrivate:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Protocol is the tunnel's transport.
type Protocol string

const (
	// ProtocolHTTP forwards HTTP and gets an https:// public URL.
	ProtocolHTTP Protocol = "http"

	// ProtocolTCP forwards raw TCP and gets a tcp:// public URL.
	ProtocolTCP Protocol = "tcp"
)

// String returns the protocol name.
func (p Protocol) String() string {
	return string(p)
}

// ParseProtocol parses a protocol name. An empty string means http.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProtocolHTTP, nil
	case ProtocolHTTP, ProtocolTCP:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
	}
}
