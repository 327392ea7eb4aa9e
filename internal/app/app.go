// Package app composes a boost application from its registered commands:
// the GraphQL schema, the CommandService and the dispatcher selected by
// the project configuration.
package app

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hanpama/boost/internal/dispatch"
	"github.com/hanpama/boost/internal/informer"
	"github.com/hanpama/boost/internal/registry"
)

// App holds the commands registered by an application.
type App struct {
	name     string
	registry *registry.Registry
	local    *dispatch.Local
	informer *informer.Informer
}

func New(name string) *App {
	reg := registry.New()
	return &App{
		name:     name,
		registry: reg,
		local:    dispatch.NewLocal(),
		informer: informer.New(informer.WithNames(reg.NameOf)),
	}
}

// Name returns the application name.
func (a *App) Name() string { return a.name }

// Register binds the command type t, named name, to h. An empty name
// defaults to the type name. Registration order is the order of the
// generated mutation fields.
func (a *App) Register(name string, t reflect.Type, h dispatch.Handler) error {
	if h == nil {
		return fmt.Errorf("app: nil handler for %s", name)
	}
	if err := a.registry.Register(name, t); err != nil {
		return err
	}
	name, _ = a.registry.NameOf(t)
	a.local.Handle(name, h)
	return nil
}

// Commands returns the registered command names in registration order.
func (a *App) Commands() []string {
	ds := a.registry.Descriptors()
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

// Dispatch runs a command through the in-process handlers.
func (a *App) Dispatch(ctx context.Context, cmd dispatch.Command) (dispatch.Ack, error) {
	return a.local.Dispatch(ctx, cmd)
}
