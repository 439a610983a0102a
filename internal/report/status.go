package report

import (
	"time"

	"github.com/nao1215/torserve/internal/platform"
	"github.com/nao1215/torserve/internal/tor"
)

// Status is a snapshot of everything torserve depends on.
type Status struct {
	Platform platform.Info

	// Supported is false when no platform handler exists for Platform.ID.
	Supported bool

	TorInstalled bool
	ProxyAddress string
	Proxy        tor.ProxyStatus

	ListenAddr   string
	Mode         string
	Protocol     string
	AuthtokenSet bool

	// ConfigFile is the loaded config path, empty when defaults are used.
	ConfigFile string

	CheckedAt time.Time
}

// Ready reports whether serve can run without installing or starting anything.
func (s *Status) Ready() bool {
	return s.Supported && s.TorInstalled && s.Proxy == tor.ProxyStatusOK
}

// Problems lists what stands between the host and a working setup.
func (s *Status) Problems() []string {
	var problems []string
	if !s.Supported {
		problems = append(problems, "platform "+s.Platform.ID+" is not supported")
	}
	if !s.TorInstalled {
		problems = append(problems, "tor is not installed (run: torserve tor ensure)")
	}
	if err := s.Proxy.Error(); err != nil {
		problems = append(problems, "SOCKS proxy at "+s.ProxyAddress+": "+err.Error())
	}
	if s.Mode == "public" && !s.AuthtokenSet {
		problems = append(problems, "public mode needs an ngrok authtoken (NGROK_AUTHTOKEN)")
	}
	return problems
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
