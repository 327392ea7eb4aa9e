package introspection

import (
	"context"
	"fmt"
	"sort"

	"github.com/hanpama/boost/internal/executor"
	"github.com/hanpama/boost/internal/schema"
)

// Wrap returns a runtime that resolves the introspection fields of s and
// delegates every other field to base, along with the schema to execute
// operations against.
func Wrap(base executor.Runtime, s *schema.Schema) (executor.Runtime, *schema.Schema) {
	return &runtime{base: base, schema: s}, extend(s)
}

type runtime struct {
	base   executor.Runtime
	schema *schema.Schema
}

func (r *runtime) ResolveField(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch objectType {
	case "__Schema":
		return r.schemaField(field)
	case "__Type":
		ref, ok := source.(*schema.TypeRef)
		if !ok {
			return nil, fmt.Errorf("introspection: unexpected __Type source %T", source)
		}
		return r.typeField(ref, field, args)
	case "__Field":
		f, ok := source.(*schema.Field)
		if !ok {
			return nil, fmt.Errorf("introspection: unexpected __Field source %T", source)
		}
		return fieldField(f, field, args)
	case "__InputValue":
		v, ok := source.(*schema.InputValue)
		if !ok {
			return nil, fmt.Errorf("introspection: unexpected __InputValue source %T", source)
		}
		return inputValueField(v, field)
	case "__Directive":
		d, ok := source.(*schema.Directive)
		if !ok {
			return nil, fmt.Errorf("introspection: unexpected __Directive source %T", source)
		}
		return directiveField(d, field, args)
	case r.schema.QueryType:
		switch field {
		case "__schema":
			return r.schema, nil
		case "__type":
			name, _ := args["name"].(string)
			if r.schema.Types[name] == nil {
				return nil, nil
			}
			return schema.NamedType(name), nil
		}
	}
	return r.base.ResolveField(ctx, objectType, field, source, args)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, scalarTypeName string, value any) (any, error) {
	return r.base.SerializeLeafValue(ctx, scalarTypeName, value)
}

func (r *runtime) schemaField(field string) (any, error) {
	s := r.schema
	switch field {
	case "description":
		return optional(s.Description), nil
	case "types":
		names := s.TypeNames()
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = schema.NamedType(name)
		}
		return out, nil
	case "queryType":
		return schema.NamedType(s.QueryType), nil
	case "mutationType":
		if s.GetMutationType() == nil {
			return nil, nil
		}
		return schema.NamedType(s.MutationType), nil
	case "subscriptionType":
		return nil, nil
	case "directives":
		names := make([]string, 0, len(s.Directives))
		for name := range s.Directives {
			names = append(names, name)
		}
		sort.Strings(names)
		out := make([]any, len(names))
		for i, name := range names {
			out[i] = s.Directives[name]
		}
		return out, nil
	}
	return nil, unknown("__Schema", field)
}

// typeField resolves __Type on a reference: wrappers report LIST or
// NON_NULL with ofType, named references describe their definition.
func (r *runtime) typeField(ref *schema.TypeRef, field string, args map[string]any) (any, error) {
	var def *schema.Type
	if ref.Kind == schema.TypeRefKindNamed {
		def = r.schema.Types[ref.Named]
		if def == nil {
			return nil, fmt.Errorf("introspection: unknown type %q", ref.Named)
		}
	}

	switch field {
	case "kind":
		if def == nil {
			return string(ref.Kind), nil
		}
		return string(def.Kind), nil
	case "ofType":
		if def != nil {
			return nil, nil
		}
		return ref.OfType, nil
	}
	if def == nil {
		// Wrappers have no other properties.
		switch field {
		case "name", "description", "specifiedByURL", "fields", "interfaces",
			"possibleTypes", "enumValues", "inputFields", "isOneOf":
			return nil, nil
		}
		return nil, unknown("__Type", field)
	}

	withDeprecated := boolArg(args, "includeDeprecated")
	switch field {
	case "name":
		return def.Name, nil
	case "description":
		return optional(def.Description), nil
	case "specifiedByURL", "possibleTypes", "enumValues":
		return nil, nil
	case "fields":
		if def.Kind != schema.TypeKindObject {
			return nil, nil
		}
		out := []any{}
		for _, f := range def.Fields {
			if withDeprecated || !f.IsDeprecated {
				out = append(out, f)
			}
		}
		return out, nil
	case "interfaces":
		if def.Kind != schema.TypeKindObject {
			return nil, nil
		}
		return []any{}, nil
	case "inputFields":
		if def.Kind != schema.TypeKindInputObject {
			return nil, nil
		}
		return inputValues(def.InputFields, withDeprecated), nil
	case "isOneOf":
		if def.Kind != schema.TypeKindInputObject {
			return nil, nil
		}
		return false, nil
	}
	return nil, unknown("__Type", field)
}

func fieldField(f *schema.Field, field string, args map[string]any) (any, error) {
	switch field {
	case "name":
		return f.Name, nil
	case "description":
		return optional(f.Description), nil
	case "args":
		return inputValues(f.Arguments, boolArg(args, "includeDeprecated")), nil
	case "type":
		return f.Type, nil
	case "isDeprecated":
		return f.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(f.IsDeprecated, f.DeprecationReason), nil
	}
	return nil, unknown("__Field", field)
}

func inputValueField(v *schema.InputValue, field string) (any, error) {
	switch field {
	case "name":
		return v.Name, nil
	case "description":
		return optional(v.Description), nil
	case "type":
		return v.Type, nil
	case "defaultValue":
		if v.DefaultValue == nil {
			return nil, nil
		}
		return schema.RenderValue(v.DefaultValue), nil
	case "isDeprecated":
		return v.IsDeprecated, nil
	case "deprecationReason":
		return deprecationReason(v.IsDeprecated, v.DeprecationReason), nil
	}
	return nil, unknown("__InputValue", field)
}

func directiveField(d *schema.Directive, field string, args map[string]any) (any, error) {
	switch field {
	case "name":
		return d.Name, nil
	case "description":
		return optional(d.Description), nil
	case "locations":
		return append([]string{}, d.Locations...), nil
	case "args":
		return inputValues(d.Arguments, boolArg(args, "includeDeprecated")), nil
	case "isRepeatable":
		return d.IsRepeatable, nil
	}
	return nil, unknown("__Directive", field)
}

func inputValues(values []*schema.InputValue, withDeprecated bool) []any {
	out := []any{}
	for _, v := range values {
		if withDeprecated || !v.IsDeprecated {
			out = append(out, v)
		}
	}
	return out
}

// optional maps an empty description to null.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

func boolArg(args map[string]any, name string) bool {
	b, _ := args[name].(bool)
	return b
}

func unknown(typ, field string) error {
	return fmt.Errorf("introspection: no field %s.%s", typ, field)
}
