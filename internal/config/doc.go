// Package config provides configuration structures and utilities for torserve.
// It holds the server address, tunnel preferences, Tor daemon settings and
// logging options, and loads overrides from an optional YAML file.
package config
