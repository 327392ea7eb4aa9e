package executor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Runtime resolves field values and serializes leaf values for the
// Executor.
//
// ResolveField is called once per field instance, in document order, with
// the parent value as source (the initial value for root fields) and the
// coerced arguments. Returning (nil, nil) yields null. Errors become
// located GraphQL errors.
type Runtime interface {
	ResolveField(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)
	SerializeLeafValue(ctx context.Context, scalarTypeName string, value any) (any, error)
}

// FieldResolver resolves one field of an object.
type FieldResolver func(ctx context.Context, source any, args map[string]any) (any, error)

// Resolvers is a Runtime backed by resolvers keyed "Type.field". Fields
// without a resolver read the key of the same name from a map source.
type Resolvers map[string]FieldResolver

func (r Resolvers) ResolveField(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	if fn, ok := r[objectType+"."+field]; ok {
		return fn(ctx, source, args)
	}
	if m, ok := source.(map[string]any); ok {
		return m[field], nil
	}
	return nil, fmt.Errorf("no resolver for %s.%s", objectType, field)
}

func (r Resolvers) SerializeLeafValue(_ context.Context, scalarTypeName string, value any) (any, error) {
	return SerializeScalar(scalarTypeName, value)
}

// SerializeScalar converts a resolved value of a builtin scalar or
// DateTime into its JSON form. Other scalars pass through unchanged.
func SerializeScalar(name string, value any) (any, error) {
	switch name {
	case "Int":
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			if v <= math.MaxInt32 && v >= math.MinInt32 {
				return int(v), nil
			}
		case float64:
			if v == math.Trunc(v) {
				return int(v), nil
			}
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		}
	case "DateTime":
		switch v := value.(type) {
		case time.Time:
			return v.Format(time.RFC3339Nano), nil
		case *time.Time:
			return v.Format(time.RFC3339Nano), nil
		case string:
			return v, nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("%s cannot represent %v (%T)", name, value, value)
}
