package grpctp

import (
	"context"
	"sync"
)

// EndpointProvider lists reachable host:port endpoints for a fully
// qualified service name such as "boost.shop.CommandService".
// Implementations must be safe for concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context, service string) ([]string, error)
}

// StaticEndpoints is an in-memory provider keyed by service name.
type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewStaticEndpoints(m map[string][]string) *StaticEndpoints {
	s := &StaticEndpoints{data: make(map[string][]string, len(m))}
	for k, v := range m {
		s.Set(k, v...)
	}
	return s
}

// Set replaces the endpoints of service.
func (s *StaticEndpoints) Set(service string, endpoints ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[service] = append([]string(nil), endpoints...)
}

func (s *StaticEndpoints) Endpoints(_ context.Context, service string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.data[service]
	if len(arr) == 0 {
		return nil, ErrNoEndpoints
	}
	return append([]string(nil), arr...), nil
}

// SingleEndpoint routes every service to one address, which is how an
// application talks to its handler process.
type SingleEndpoint string

func (e SingleEndpoint) Endpoints(context.Context, string) ([]string, error) {
	if e == "" {
		return nil, ErrNoEndpoints
	}
	return []string{string(e)}, nil
}
