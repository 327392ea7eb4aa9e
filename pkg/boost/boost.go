// Package boost is the API of boost applications: commands register
// themselves here and main hands the assembled App to Main.
//
//	type AddItem struct {
//		CartID   boost.UUID
//		SKU      string `validate:"required"`
//		Quantity int    `validate:"min=1"`
//	}
//
//	func init() { boost.Register[AddItem]() }
//
//	func (c AddItem) Handle(ctx context.Context) error { ... }
package boost

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/hanpama/boost/internal/app"
	"github.com/hanpama/boost/internal/dispatch"
)

// UUID identifies entities and commands. GraphQL exposes it as ID.
type UUID = uuid.UUID

// NewUUID returns a random UUID.
func NewUUID() UUID { return uuid.New() }

// Handler is a command that handles itself.
type Handler interface {
	Handle(ctx context.Context) error
}

type registration struct {
	name    string
	typ     reflect.Type
	handler dispatch.Handler
}

var (
	mu            sync.Mutex
	registrations []registration
	registered    = make(map[reflect.Type]bool)
)

// Register makes C a command of every App created afterwards. It is meant
// to be called from init and panics when C is registered twice.
func Register[C Handler]() {
	RegisterNamed[C]("")
}

// RegisterNamed is like Register but exposes C under the given mutation
// name.
func RegisterNamed[C Handler](name string) {
	t := reflect.TypeFor[C]()
	mu.Lock()
	defer mu.Unlock()
	if registered[t] {
		panic(fmt.Sprintf("boost: Register called twice for %s", t))
	}
	registered[t] = true
	registrations = append(registrations, registration{name: name, typ: t, handler: handlerOf[C]()})
}

func handlerOf[C Handler]() dispatch.Handler {
	return func(ctx context.Context, cmd any) error {
		c, err := as[C](cmd)
		if err != nil {
			return err
		}
		return c.Handle(ctx)
	}
}

// as converts a decoded payload to C. Payloads are struct values, so a
// pointer C gets a pointer to a copy.
func as[C any](cmd any) (C, error) {
	if c, ok := cmd.(C); ok {
		return c, nil
	}
	if cmd != nil {
		ptr := reflect.New(reflect.TypeOf(cmd))
		ptr.Elem().Set(reflect.ValueOf(cmd))
		if c, ok := ptr.Interface().(C); ok {
			return c, nil
		}
	}
	var zero C
	return zero, fmt.Errorf("boost: cannot handle %T as %s", cmd, reflect.TypeFor[C]())
}

// App is a boost application.
type App struct {
	app *app.App
}

// New creates the application called name with every registered command.
func New(name string) *App {
	a := &App{app: app.New(name)}
	mu.Lock()
	defer mu.Unlock()
	for _, r := range registrations {
		if err := a.app.Register(r.name, r.typ, r.handler); err != nil {
			panic(fmt.Sprintf("boost: %v", err))
		}
	}
	return a
}

// Command adds C to a with fn as its handler. C needs no Handle method.
func Command[C any](a *App, fn func(ctx context.Context, cmd C) error) error {
	return CommandNamed(a, "", fn)
}

// CommandNamed is like Command but exposes C under the given mutation name.
func CommandNamed[C any](a *App, name string, fn func(ctx context.Context, cmd C) error) error {
	if fn == nil {
		return fmt.Errorf("boost: nil handler for %s", reflect.TypeFor[C]())
	}
	return a.app.Register(name, reflect.TypeFor[C](), func(ctx context.Context, cmd any) error {
		c, err := as[C](cmd)
		if err != nil {
			return err
		}
		return fn(ctx, c)
	})
}

// Name returns the application name.
func (a *App) Name() string { return a.app.Name() }

// Commands returns the command names in mutation order.
func (a *App) Commands() []string { return a.app.Commands() }

// Run executes the application command line given by args.
func (a *App) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	return app.Execute(ctx, a.app, app.IO{Out: stdout, Err: stderr, WorkDir: wd}, args)
}

// Main runs the application command line and exits.
func Main(a *App) {
	os.Exit(app.Main(a.app, os.Args[1:]))
}
