package mutation

import (
	"reflect"

	"github.com/hanpama/boost/internal/schema"
)

// Field is one generated mutation entry point.
type Field struct {
	Name       string
	ReturnType *schema.TypeRef
	InputType  *schema.TypeRef // always Non-Null
	Resolver   Resolver
	Type       reflect.Type
}

// Schema is the generated mutation root: the fields in registry order plus
// a by-name index.
type Schema struct {
	Name   string
	Fields []*Field
	index  map[string]*Field
}

func newSchema(name string, fields []*Field) *Schema {
	index := make(map[string]*Field, len(fields))
	for _, f := range fields {
		index[f.Name] = f
	}
	return &Schema{Name: name, Fields: fields, index: index}
}

// Field looks a field up by name.
func (s *Schema) Field(name string) (*Field, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.index[name]
	return f, ok
}

// Len returns the number of fields. A nil schema has none.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Fields)
}

// ObjectType converts s into the object type merged into the executable
// schema. Every field takes a single "input" argument.
func (s *Schema) ObjectType() *schema.Type {
	t := schema.NewType(s.Name, schema.TypeKindObject, "")
	for _, f := range s.Fields {
		t.AddField(schema.NewField(f.Name, "Dispatches the "+f.Name+" command.", f.ReturnType).
			AddArgument(schema.NewInputValue(InputArgument, "", f.InputType)))
	}
	return t
}

// AcknowledgementTypeName names the object returned by mutations when the
// richer acknowledgement is enabled.
const AcknowledgementTypeName = "CommandAcknowledgement"

// AcknowledgementType describes an accepted command: whether it was accepted
// and the request ID it was dispatched under.
func AcknowledgementType() *schema.Type {
	return schema.NewType(AcknowledgementTypeName, schema.TypeKindObject, "Result of submitting a command.").
		AddField(schema.NewField("accepted", "", schema.NonNullType(schema.NamedType("Boolean")))).
		AddField(schema.NewField("requestId", "", schema.NonNullType(schema.NamedType("ID"))))
}
