// Package server provides the managed inference server collaborator.
//
// The rest of the application consumes this package only through the
// narrow Manager capability interface: configuration get/set/list,
// process status, start/stop, and log retrieval. Semantic validation of
// configuration values lives here, behind the boundary.
package server

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by GetConfig for an unknown key.
var ErrKeyNotFound = errors.New("config key not found")

// StartOptions configures a server launch.
type StartOptions struct {
	Model string // Optional model override; empty uses the configured model.
}

// Manager is the capability interface for the managed server.
type Manager interface {
	// GetConfig returns the value for a key, or ErrKeyNotFound.
	GetConfig(key string) (string, error)

	// SetConfig stores a key/value pair. Returns a validation error
	// for keys or values the server cannot accept.
	SetConfig(key, value string) error

	// ListConfig returns a copy of the full configuration mapping.
	ListConfig() map[string]string

	// IsRunning reports whether the server process is alive.
	IsRunning() bool

	// GetPid returns the server process id, or 0 when not running.
	GetPid() int

	// Start launches the server process.
	Start(ctx context.Context, opts StartOptions) error

	// Stop terminates the server process.
	Stop() error

	// ReadLogs returns up to lineCount trailing log lines.
	ReadLogs(lineCount int) (string, error)
}
