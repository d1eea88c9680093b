// Package server provides the HTTP server for the REST API.
package server

import "time"

// Config holds the server configuration.
type Config struct {
	// Address is the listen address, e.g. ":8444".
	Address string

	// ReadTimeout bounds reading the full request.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the full response. Batch issuance is
	// synchronous, so this must cover a whole batch run.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:         ":8444",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
	}
}
