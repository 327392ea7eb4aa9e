package protoreg

import (
	"fmt"
	"path"

	"github.com/hanpama/boost/internal/mutation"
	"github.com/hanpama/boost/internal/schema"
	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Build derives the CommandService proto file from the mutation root of s.
// Every mutation field becomes a unary method Handle<Field> taking the
// message generated for its input type and returning CommandAck. A schema
// without a mutation type yields a service without methods.
func Build(app string, s *schema.Schema) (*Registry, error) {
	pkg := "boost." + packageName(app)
	b := &builder{
		schema:   s,
		file:     protobuilder.NewFile(path.Join("boost", packageName(app), "commands.proto")),
		messages: make(map[string]*protobuilder.MessageBuilder),
		fieldMap: make(map[protoreflect.Name]map[protoreflect.Name]string),
	}
	b.file.SetPackageName(protoreflect.FullName(pkg))
	b.file.SetSyntax(protoreflect.Proto3)

	ack := protobuilder.NewMessage(AckMessageName)
	ack.SetComments(comment("Acknowledges that a command was accepted for processing."))
	ackFields := []*protobuilder.FieldBuilder{
		protobuilder.NewField("accepted", protobuilder.FieldTypeScalar(protoreflect.BoolKind)),
		protobuilder.NewField("request_id", protobuilder.FieldTypeScalar(protoreflect.StringKind)),
	}
	for _, fb := range ackFields {
		ack.AddField(fb)
	}
	allocateFieldNumbers(ackFields)
	b.file.AddMessage(ack)

	svc := protobuilder.NewService(ServiceName)
	b.file.AddService(svc)

	var commands []string
	if mt := s.GetMutationType(); mt != nil {
		for _, f := range mt.Fields {
			arg := f.Argument(mutation.InputArgument)
			if arg == nil {
				return nil, fmt.Errorf("protoreg: mutation %s has no %q argument", f.Name, mutation.InputArgument)
			}
			req, err := b.message(arg.Type.GetNamedType())
			if err != nil {
				return nil, fmt.Errorf("protoreg: mutation %s: %w", f.Name, err)
			}
			mb := protobuilder.NewMethod(
				nameHandleMethod(f.Name),
				protobuilder.RpcTypeMessage(req, false),
				protobuilder.RpcTypeMessage(ack, false),
			)
			mb.SetComments(comment("Handles the " + f.Name + " command."))
			svc.AddMethod(mb)
			commands = append(commands, f.Name)
		}
	}

	fd, err := b.file.Build()
	if err != nil {
		return nil, fmt.Errorf("protoreg: %w", err)
	}
	return newRegistry(fd, commands, b.fieldMap)
}

type builder struct {
	schema   *schema.Schema
	file     *protobuilder.FileBuilder
	messages map[string]*protobuilder.MessageBuilder
	// message name -> proto field name -> GraphQL field name
	fieldMap map[protoreflect.Name]map[protoreflect.Name]string
}

// message returns the builder for the input object named name, creating it
// and its dependencies on first use.
func (b *builder) message(name string) (*protobuilder.MessageBuilder, error) {
	if mb, ok := b.messages[name]; ok {
		return mb, nil
	}
	typ := b.schema.Types[name]
	if typ == nil || typ.Kind != schema.TypeKindInputObject {
		return nil, fmt.Errorf("%s is not an input object type", name)
	}

	mb := protobuilder.NewMessage(protoreflect.Name(name))
	mb.SetComments(comment(typ.Description))
	b.messages[name] = mb
	b.file.AddMessage(mb)

	names := make(map[protoreflect.Name]string, len(typ.InputFields))
	b.fieldMap[mb.Name()] = names
	fields := make([]*protobuilder.FieldBuilder, 0, len(typ.InputFields))
	for _, iv := range typ.InputFields {
		fieldName := nameProtoField(iv.Name)
		if prev, ok := names[fieldName]; ok {
			return nil, fmt.Errorf("%s: fields %s and %s both map to %s", name, prev, iv.Name, fieldName)
		}
		ft, repeated, err := b.fieldType(iv.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", name, iv.Name, err)
		}
		fb := protobuilder.NewField(fieldName, ft)
		fb.SetComments(comment(iv.Description))
		if repeated {
			fb.SetRepeated()
		} else if !iv.Type.IsNonNull() {
			fb.SetOptional()
		}
		mb.AddField(fb)
		fields = append(fields, fb)
		names[fieldName] = iv.Name
	}
	allocateFieldNumbers(fields)
	return mb, nil
}

func (b *builder) fieldType(ref *schema.TypeRef) (*protobuilder.FieldType, bool, error) {
	inner := ref
	if inner.IsNonNull() {
		inner = inner.OfType
	}
	repeated := false
	if inner.Kind == schema.TypeRefKindList {
		repeated = true
		inner = inner.OfType
		if inner.IsNonNull() {
			inner = inner.OfType
		}
		if inner.Kind == schema.TypeRefKindList {
			return nil, false, fmt.Errorf("nested lists are not supported")
		}
	}
	name := inner.GetNamedType()
	if kind, ok := scalarKinds[name]; ok {
		return protobuilder.FieldTypeScalar(kind), repeated, nil
	}
	typ := b.schema.Types[name]
	if typ == nil {
		return nil, false, fmt.Errorf("unknown type %s", name)
	}
	if typ.Kind == schema.TypeKindScalar {
		return protobuilder.FieldTypeScalar(protoreflect.StringKind), repeated, nil
	}
	mb, err := b.message(name)
	if err != nil {
		return nil, false, err
	}
	return protobuilder.FieldTypeMessage(mb), repeated, nil
}

// scalarKinds maps builtin GraphQL scalars. Custom scalars travel as strings.
var scalarKinds = map[string]protoreflect.Kind{
	"String":  protoreflect.StringKind,
	"ID":      protoreflect.StringKind,
	"Int":     protoreflect.Int64Kind,
	"Float":   protoreflect.DoubleKind,
	"Boolean": protoreflect.BoolKind,
}
