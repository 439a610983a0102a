// Package main provides the entry point for the torserve CLI.
//
// torserve makes sure the Tor daemon is installed and running, asks whether
// the local HTTP server should be public or private, optionally exposes it
// through an ngrok tunnel, and then serves HTTP until interrupted.
//
// Usage:
//
//	torserve
//	torserve serve --mode public --protocol http
//	torserve tor ensure
//	torserve status --markdown
//
// See --help for all available options.
package main

func main() {
	Execute()
}
