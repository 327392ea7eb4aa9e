package mutation

import (
	"fmt"
	"reflect"
)

// IntrospectionError reports that a command type cannot be expressed as a
// GraphQL input type. It fails the whole build.
type IntrospectionError struct {
	Type   reflect.Type
	Reason string
	Err    error
}

func (e *IntrospectionError) Error() string {
	msg := fmt.Sprintf("mutation: cannot derive input type from %s: %s", e.Type, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// ResolverConstructionError reports that no resolver could be built for a
// command type, e.g. because no handler was registered for it.
type ResolverConstructionError struct {
	Type   reflect.Type
	Name   string
	Reason string
	Err    error
}

func (e *ResolverConstructionError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprint(e.Type)
	}
	msg := fmt.Sprintf("mutation: cannot build resolver for %s: %s", name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolverConstructionError) Unwrap() error { return e.Err }
