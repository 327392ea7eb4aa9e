package grpctp

import "errors"

var (
	// ErrNoEndpoints is returned when the provider knows no endpoint for a service.
	ErrNoEndpoints = errors.New("grpctp: no endpoints available")
	// ErrClosed is returned by calls on a closed transport.
	ErrClosed = errors.New("grpctp: closed")
)
