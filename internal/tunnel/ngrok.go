package tunnel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
)

// NgrokConnector opens tunnels through the ngrok agent SDK, forwarding
// traffic to the local port.
type NgrokConnector struct {
	authtoken string
}

// NewNgrokConnector returns a connector that authenticates with authtoken.
func NewNgrokConnector(authtoken string) *NgrokConnector {
	return &NgrokConnector{authtoken: authtoken}
}

// Connect implements Connector.
func (n *NgrokConnector) Connect(ctx context.Context, port int, proto Protocol) (Handle, error) {
	if n.authtoken == "" {
		return nil, ErrNoAuthtoken
	}

	var (
		endpoint config.Tunnel
		backend  *url.URL
	)
	switch proto {
	case ProtocolTCP:
		endpoint = config.TCPEndpoint()
		backend = &url.URL{Scheme: "tcp", Host: fmt.Sprintf("localhost:%d", port)}
	case ProtocolHTTP, "":
		endpoint = config.HTTPEndpoint()
		backend = &url.URL{Scheme: "http", Host: fmt.Sprintf("localhost:%d", port)}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, proto)
	}

	fwd, err := ngrok.ListenAndForward(ctx, backend, endpoint, ngrok.WithAuthtoken(n.authtoken))
	if err != nil {
		return nil, fmt.Errorf("ngrok: %w", err)
	}
	return newNgrokHandle(fwd, fwd.Session()), nil
}

// forwarder is the part of ngrok.Forwarder the handle uses.
type forwarder interface {
	URL() string
	Close() error
	Wait() error
}

// ngrokHandle owns both the forwarder and the agent session that
// ListenAndForward opened for it. Closing the forwarder alone leaves the
// session connected.
type ngrokHandle struct {
	fwd     forwarder
	session io.Closer
}

func newNgrokHandle(fwd forwarder, session io.Closer) *ngrokHandle {
	return &ngrokHandle{fwd: fwd, session: session}
}

// URL implements Handle.
func (h *ngrokHandle) URL() string {
	return h.fwd.URL()
}

// Close stops forwarding, then disconnects the session.
func (h *ngrokHandle) Close() error {
	err := h.fwd.Close()
	if h.session != nil {
		err = errors.Join(err, h.session.Close())
	}
	return err
}

// Wait blocks until forwarding stops.
func (h *ngrokHandle) Wait() error {
	return h.fwd.Wait()
}
