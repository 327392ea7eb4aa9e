package protoreg

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// EncodeInput builds the request message for command from a coerced
// GraphQL input object. Keys are GraphQL field names; nil values leave the
// field unset.
func (r *Registry) EncodeInput(command string, input map[string]any) (*dynamicpb.Message, error) {
	md, ok := r.methods[command]
	if !ok {
		return nil, fmt.Errorf("protoreg: unknown command %s", command)
	}
	msg := dynamicpb.NewMessage(md.Input())
	if err := r.setFields(msg, input); err != nil {
		return nil, fmt.Errorf("protoreg: encode %s: %w", command, err)
	}
	return msg, nil
}

// DecodeInput turns a request message back into a GraphQL shaped map.
// Unset fields with presence are omitted; repeated fields always appear.
func (r *Registry) DecodeInput(msg protoreflect.Message) map[string]any {
	out := make(map[string]any)
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		name, ok := r.graphQLName(fd)
		if !ok {
			name = fd.JSONName()
		}
		if fd.IsList() {
			list := msg.Get(fd).List()
			items := make([]any, list.Len())
			for j := 0; j < list.Len(); j++ {
				items[j] = r.decodeValue(fd, list.Get(j))
			}
			out[name] = items
			continue
		}
		if fd.HasPresence() && !msg.Has(fd) {
			continue
		}
		out[name] = r.decodeValue(fd, msg.Get(fd))
	}
	return out
}

func (r *Registry) setFields(msg protoreflect.Message, data map[string]any) error {
	md := msg.Descriptor()
	for k, v := range data {
		fd := r.fieldFor(md, k)
		if fd == nil {
			return fmt.Errorf("%s has no field %s", md.Name(), k)
		}
		if v == nil {
			continue
		}
		if fd.IsList() {
			items, ok := v.([]any)
			if !ok {
				return fmt.Errorf("%s: expected a list, got %T", k, v)
			}
			list := msg.Mutable(fd).List()
			for _, it := range items {
				pv, err := r.encodeValue(fd, it)
				if err != nil {
					return fmt.Errorf("%s: %w", k, err)
				}
				list.Append(pv)
			}
			continue
		}
		pv, err := r.encodeValue(fd, v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		msg.Set(fd, pv)
	}
	return nil
}

func (r *Registry) encodeValue(fd protoreflect.FieldDescriptor, v any) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		if b, ok := v.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}
	case protoreflect.Int64Kind:
		if n, ok := toInt64(v); ok {
			return protoreflect.ValueOfInt64(n), nil
		}
	case protoreflect.DoubleKind:
		if n, ok := toFloat64(v); ok {
			return protoreflect.ValueOfFloat64(n), nil
		}
	case protoreflect.StringKind:
		switch s := v.(type) {
		case string:
			return protoreflect.ValueOfString(s), nil
		case fmt.Stringer:
			return protoreflect.ValueOfString(s.String()), nil
		}
	case protoreflect.MessageKind:
		if mv, ok := v.(map[string]any); ok {
			msg := dynamicpb.NewMessage(fd.Message())
			if err := r.setFields(msg, mv); err != nil {
				return protoreflect.Value{}, err
			}
			return protoreflect.ValueOfMessage(msg), nil
		}
	}
	return protoreflect.Value{}, fmt.Errorf("unsupported value %T for %s field", v, fd.Kind())
}

func (r *Registry) decodeValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int64Kind:
		return v.Int()
	case protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.MessageKind:
		return r.DecodeInput(v.Message())
	default:
		return nil
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
