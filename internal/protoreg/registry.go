package protoreg

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Registry resolves commands to the methods and messages of the built
// CommandService file.
type Registry struct {
	file     protoreflect.FileDescriptor
	service  protoreflect.ServiceDescriptor
	commands []string
	methods  map[string]protoreflect.MethodDescriptor
	byMethod map[protoreflect.FullName]string
	fieldMap map[protoreflect.Name]map[protoreflect.Name]string
}

func newRegistry(fd protoreflect.FileDescriptor, commands []string, fieldMap map[protoreflect.Name]map[protoreflect.Name]string) (*Registry, error) {
	svc := fd.Services().ByName(ServiceName)
	if svc == nil {
		return nil, fmt.Errorf("protoreg: %s missing from %s", ServiceName, fd.Path())
	}
	r := &Registry{
		file:     fd,
		service:  svc,
		commands: commands,
		methods:  make(map[string]protoreflect.MethodDescriptor, len(commands)),
		byMethod: make(map[protoreflect.FullName]string, len(commands)),
		fieldMap: fieldMap,
	}
	for _, c := range commands {
		md := svc.Methods().ByName(nameHandleMethod(c))
		if md == nil {
			return nil, fmt.Errorf("protoreg: method for %s missing", c)
		}
		r.methods[c] = md
		r.byMethod[md.FullName()] = c
	}
	return r, nil
}

// File returns the generated file descriptor.
func (r *Registry) File() protoreflect.FileDescriptor { return r.file }

// Service returns the CommandService descriptor.
func (r *Registry) Service() protoreflect.ServiceDescriptor { return r.service }

// Commands returns the command names in mutation order.
func (r *Registry) Commands() []string {
	return append([]string(nil), r.commands...)
}

// Method returns the method handling command.
func (r *Registry) Method(command string) (protoreflect.MethodDescriptor, bool) {
	md, ok := r.methods[command]
	return md, ok
}

// Command returns the command handled by md.
func (r *Registry) Command(md protoreflect.MethodDescriptor) (string, bool) {
	c, ok := r.byMethod[md.FullName()]
	return c, ok
}

// graphQLName returns the GraphQL input field a proto field was built from.
func (r *Registry) graphQLName(fd protoreflect.FieldDescriptor) (string, bool) {
	names, ok := r.fieldMap[fd.ContainingMessage().Name()]
	if !ok {
		return "", false
	}
	name, ok := names[fd.Name()]
	return name, ok
}

// fieldFor returns the proto field built from GraphQL input field name.
func (r *Registry) fieldFor(md protoreflect.MessageDescriptor, name string) protoreflect.FieldDescriptor {
	for protoName, gqlName := range r.fieldMap[md.Name()] {
		if gqlName == name {
			return md.Fields().ByName(protoName)
		}
	}
	return nil
}
