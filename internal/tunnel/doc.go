// Package tunnel decides whether the local server is exposed publicly and,
// when it is, opens an ngrok tunnel to it.
//
// The tunnel is an explicit Handle returned by Launcher.Start and closed by
// the caller with Launcher.Close. Private mode opens nothing and returns a
// nil Handle.
package tunnel
