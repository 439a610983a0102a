// Package server is the HTTP side of torserve: a gin engine with a banner,
// a health check and a passthrough endpoint that relays one outbound GET,
// normally through the Tor SOCKS proxy.
package server
