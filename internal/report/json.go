package report

import (
	"encoding/json"
	"io"
	"time"
)

// JSONWriter renders the status as a single JSON object.
type JSONWriter struct {
	baseWriter
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
}

// NewJSONWriter returns a JSONWriter writing to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type jsonStatus struct {
	Platform     string    `json:"platform"`
	Family       string    `json:"family,omitempty"`
	Version      string    `json:"version,omitempty"`
	Hostname     string    `json:"hostname,omitempty"`
	Supported    bool      `json:"supported"`
	TorInstalled bool      `json:"tor_installed"`
	ProxyAddress string    `json:"proxy_address"`
	ProxyStatus  string    `json:"proxy_status"`
	ListenAddr   string    `json:"listen_addr"`
	Mode         string    `json:"mode,omitempty"`
	Protocol     string    `json:"protocol"`
	AuthtokenSet bool      `json:"authtoken_set"`
	ConfigFile   string    `json:"config_file,omitempty"`
	Ready        bool      `json:"ready"`
	Problems     []string  `json:"problems"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Write implements Writer.
func (w *JSONWriter) Write(status *Status) (int, error) {
	problems := status.Problems()
	if problems == nil {
		problems = []string{}
	}

	out := jsonStatus{
		Platform:     status.Platform.ID,
		Family:       status.Platform.Family,
		Version:      status.Platform.Version,
		Hostname:     status.Platform.Hostname,
		Supported:    status.Supported,
		TorInstalled: status.TorInstalled,
		ProxyAddress: status.ProxyAddress,
		ProxyStatus:  status.Proxy.String(),
		ListenAddr:   status.ListenAddr,
		Mode:         status.Mode,
		Protocol:     status.Protocol,
		AuthtokenSet: status.AuthtokenSet,
		ConfigFile:   status.ConfigFile,
		Ready:        status.Ready(),
		Problems:     problems,
		CheckedAt:    status.CheckedAt,
	}

	var (
		data []byte
		err  error
	)
	if w.indent != "" {
		data, err = json.MarshalIndent(out, "", w.indent)
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
