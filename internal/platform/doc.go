// Package platform knows how to install and (re)start the Tor daemon on the
// host operating system.
//
// Resolve maps a platform identifier (runtime.GOOS) to one of exactly three
// handlers: Linux, macOS (darwin) and Windows. Anything else is rejected with
// ErrUnsupportedPlatform before a single command runs.
//
//	handler, err := platform.Resolve(runtime.GOOS, platform.WithFamily(info.Family))
//	if err != nil {
//	    return err // unsupported platform
//	}
//	if err := handler.Install(ctx); err != nil { ... }
//	if err := handler.Start(ctx); err != nil { ... }
//
// Handlers never retry. Commands are executed through a Runner so tests can
// record the invocations instead of touching the host.
package platform
