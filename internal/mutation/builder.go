package mutation

import (
	"context"
	"reflect"

	"github.com/hanpama/boost/internal/registry"
	"github.com/hanpama/boost/internal/schema"
)

// InputArgument is the name of the single argument every mutation field takes.
const InputArgument = "input"

// Resolver executes one mutation. args holds the coerced field arguments;
// the command payload is args[InputArgument].
type Resolver func(ctx context.Context, args map[string]any) (any, error)

// TypeIntrospector converts a command type into a GraphQL input type.
// Repeated calls with the same type must return structurally equal results.
type TypeIntrospector interface {
	InputTypeFor(t reflect.Type) (*schema.TypeRef, error)
}

// ResolverFactory builds the resolver bound to a command type. It must not
// perform I/O; that happens when the resolver is invoked.
type ResolverFactory interface {
	Build(t reflect.Type) (Resolver, error)
}

// Registry is the read-only view of the command registry used by Build.
type Registry interface {
	Descriptors() []registry.Descriptor
}

type options struct {
	typeName   string
	returnType *schema.TypeRef
}

type Option func(*options)

// WithReturnType overrides the type every mutation field returns.
func WithReturnType(ref *schema.TypeRef) Option {
	return func(o *options) { o.returnType = ref }
}

// WithTypeName overrides the root type name (default "Mutation").
func WithTypeName(name string) Option {
	return func(o *options) { o.typeName = name }
}

// Build derives one mutation field per registry entry, in registry order.
//
// The first error returned by the introspector or the resolver factory is
// returned as is and no schema is produced. When the registry is empty Build
// returns (nil, nil): there is no mutation type, and callers must leave it
// out of the composed schema.
func Build(reg Registry, introspector TypeIntrospector, factory ResolverFactory, opts ...Option) (*Schema, error) {
	o := &options{
		typeName:   "Mutation",
		returnType: schema.NamedType("Boolean"),
	}
	for _, f := range opts {
		f(o)
	}

	descriptors := reg.Descriptors()
	if len(descriptors) == 0 {
		return nil, nil
	}

	fields := make([]*Field, 0, len(descriptors))
	for _, d := range descriptors {
		inputType, err := introspector.InputTypeFor(d.Type)
		if err != nil {
			return nil, err
		}
		resolver, err := factory.Build(d.Type)
		if err != nil {
			return nil, err
		}
		fields = append(fields, &Field{
			Name:       d.Name,
			ReturnType: o.returnType,
			InputType:  schema.NonNullType(inputType),
			Resolver:   resolver,
			Type:       d.Type,
		})
	}
	return newSchema(o.typeName, fields), nil
}
