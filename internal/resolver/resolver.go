// Package resolver builds the mutation resolvers that turn a GraphQL input
// object into a command value and dispatch it.
package resolver

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/hanpama/boost/internal/dispatch"
	"github.com/hanpama/boost/internal/log"
	"github.com/hanpama/boost/internal/mutation"
	"github.com/hanpama/boost/internal/registry"
	"github.com/hanpama/boost/internal/reqid"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidate() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Factory builds resolvers for registered command types. It implements
// mutation.ResolverFactory and dispatch.Decoder.
type Factory struct {
	registry   *registry.Registry
	dispatcher dispatch.Dispatcher
	ackObject  bool
}

type Option func(*Factory)

// WithAcknowledgementObject makes resolvers return the CommandAcknowledgement
// object instead of a Boolean.
func WithAcknowledgementObject() Option {
	return func(f *Factory) { f.ackObject = true }
}

func New(reg *registry.Registry, d dispatch.Dispatcher, opts ...Option) *Factory {
	f := &Factory{registry: reg, dispatcher: d}
	for _, o := range opts {
		o(f)
	}
	return f
}

var _ mutation.ResolverFactory = (*Factory)(nil)

// Build returns the resolver for t. It fails when t is not registered or
// the dispatcher has no handler for its command.
func (f *Factory) Build(t reflect.Type) (mutation.Resolver, error) {
	name, ok := f.registry.NameOf(t)
	if !ok {
		return nil, &mutation.ResolverConstructionError{Type: t, Reason: "type is not registered"}
	}
	if !f.dispatcher.Handles(name) {
		return nil, &mutation.ResolverConstructionError{Type: t, Name: name, Reason: "no handler registered", Err: dispatch.ErrNoHandler}
	}
	return func(ctx context.Context, args map[string]any) (any, error) {
		input, ok := args[mutation.InputArgument].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: missing %q argument", name, mutation.InputArgument)
		}
		payload, err := f.Decode(name, input)
		if err != nil {
			return nil, err
		}
		ctx, id := reqid.Ensure(ctx)
		log.FromContext(ctx).V(2).Info("resolving mutation", "command", name, "requestId", id)
		ack, err := f.dispatcher.Dispatch(ctx, dispatch.Command{
			Name:      name,
			RequestID: id,
			Payload:   payload,
			Input:     input,
		})
		if err != nil {
			return nil, err
		}
		if f.ackObject {
			return map[string]any{"accepted": ack.Accepted, "requestId": ack.RequestID}, nil
		}
		return ack.Accepted, nil
	}, nil
}

// Decode builds a new value of the type registered under command from input
// and validates it with its `validate` tags.
func (f *Factory) Decode(command string, input map[string]any) (any, error) {
	d, ok := f.registry.Lookup(command)
	if !ok {
		return nil, fmt.Errorf("unknown command %s", command)
	}
	ptr := reflect.New(d.Type)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "graphql",
		WeaklyTypedInput: true,
		Squash:           true,
		Result:           ptr.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			integerRangeHook(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(input); err != nil {
		return nil, fmt.Errorf("decode %s: %w", command, err)
	}
	if err := getValidate().Struct(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", command, err)
	}
	return ptr.Elem().Interface(), nil
}

// integerRangeHook rejects numbers that the target integer field cannot
// hold. GraphQL Int is a signed 32-bit value, and Go fields may be narrower
// or unsigned.
func integerRangeHook() mapstructure.DecodeHookFuncType {
	return func(_, to reflect.Type, data any) (any, error) {
		if data == nil || !isInteger(to.Kind()) {
			return data, nil
		}
		v := reflect.ValueOf(data)
		var ok bool
		switch {
		case isSigned(v.Kind()):
			ok = fitsInt(v.Int(), to)
		case isUnsigned(v.Kind()):
			ok = fitsUint(v.Uint(), to)
		case v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64:
			f := v.Float()
			switch {
			case f != math.Trunc(f):
				ok = false
			case f < 0:
				ok = f >= math.MinInt64 && fitsInt(int64(f), to)
			default:
				ok = f < math.MaxUint64 && fitsUint(uint64(f), to)
			}
		default:
			return data, nil
		}
		if !ok {
			return nil, fmt.Errorf("%v does not fit in %s", data, to)
		}
		return data, nil
	}
}

func fitsInt(n int64, to reflect.Type) bool {
	if isUnsigned(to.Kind()) {
		return n >= 0 && !reflect.Zero(to).OverflowUint(uint64(n))
	}
	return !reflect.Zero(to).OverflowInt(n)
}

func fitsUint(n uint64, to reflect.Type) bool {
	if isUnsigned(to.Kind()) {
		return !reflect.Zero(to).OverflowUint(n)
	}
	return n <= math.MaxInt64 && !reflect.Zero(to).OverflowInt(int64(n))
}

func isInteger(k reflect.Kind) bool {
	return isSigned(k) || isUnsigned(k)
}

func isSigned(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
