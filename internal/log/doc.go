// Package log builds the slog loggers used by torserve.
//
// Every logger returned here is wrapped in a SecureHandler, which masks
// values that should never reach a terminal or a log file:
//   - ngrok authtokens and other credentials, matched by key name
//   - bearer/basic authorization values and JWTs, matched by value
//   - user:password pairs embedded in URLs handed to the passthrough endpoint
//
// # Usage
//
//	logger, closer, err := log.New(log.Options{Writer: os.Stderr, Verbose: true})
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//	slog.SetDefault(logger)
//
// The handler is plain slog, so the same logger can be handed to tornago.
package log
