// Package dispatch hands decoded commands to their handlers, either in the
// current process or through the generated CommandService over gRPC.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hanpama/boost/internal/eventbus"
	"github.com/hanpama/boost/internal/events"
	"github.com/hanpama/boost/internal/log"
	"github.com/hanpama/boost/internal/reqid"
)

// ErrNoHandler is returned when a command has no handler.
var ErrNoHandler = errors.New("dispatch: no handler for command")

// Command is one mutation ready to be handled.
type Command struct {
	Name      string
	RequestID string
	// Payload is the decoded and validated command value.
	Payload any
	// Input is the coerced GraphQL input object Payload was decoded from.
	Input map[string]any
}

// Ack acknowledges that a command was accepted for processing.
type Ack struct {
	Accepted  bool
	RequestID string
}

// Dispatcher delivers commands.
type Dispatcher interface {
	// Handles reports whether the dispatcher can deliver the named command.
	Handles(name string) bool
	Dispatch(ctx context.Context, cmd Command) (Ack, error)
}

// Handler processes one command value.
type Handler func(ctx context.Context, cmd any) error

// Local runs handlers in the calling goroutine.
type Local struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewLocal() *Local {
	return &Local{handlers: make(map[string]Handler)}
}

// Handle registers h for the named command, replacing a previous handler.
func (l *Local) Handle(name string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[name] = h
}

func (l *Local) Handles(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.handlers[name]
	return ok
}

func (l *Local) Dispatch(ctx context.Context, cmd Command) (ack Ack, err error) {
	l.mu.RLock()
	h, ok := l.handlers[cmd.Name]
	l.mu.RUnlock()
	if !ok {
		return Ack{}, fmt.Errorf("%w %s", ErrNoHandler, cmd.Name)
	}
	ctx, cmd.RequestID = withRequestID(ctx, cmd.RequestID)

	done := observe(ctx, cmd, "local")
	defer func() { done(ack, err) }()

	if err := h(ctx, cmd.Payload); err != nil {
		return Ack{}, err
	}
	return Ack{Accepted: true, RequestID: cmd.RequestID}, nil
}

func withRequestID(ctx context.Context, id string) (context.Context, string) {
	if id != "" {
		return reqid.WithID(ctx, id), id
	}
	return reqid.Ensure(ctx)
}

// observe logs and publishes the start of cmd and returns the matching
// finish callback.
func observe(ctx context.Context, cmd Command, provider string) func(Ack, error) {
	logger := log.FromContext(ctx).WithValues("command", cmd.Name, "requestId", cmd.RequestID, "provider", provider)
	logger.V(1).Info("dispatching command")
	eventbus.Publish(ctx, events.CommandStart{Command: cmd.Name, RequestID: cmd.RequestID, Provider: provider})
	start := time.Now()
	return func(ack Ack, err error) {
		d := time.Since(start)
		if err != nil {
			logger.Error(err, "command failed", "duration", d)
		} else {
			logger.V(1).Info("command accepted", "duration", d)
		}
		eventbus.Publish(ctx, events.CommandFinish{
			Command:   cmd.Name,
			RequestID: cmd.RequestID,
			Provider:  provider,
			Accepted:  ack.Accepted,
			Err:       err,
			Duration:  d,
		})
	}
}
