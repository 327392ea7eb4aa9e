package informer

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/hanpama/boost/internal/mutation"
	"github.com/hanpama/boost/internal/schema"
)

var (
	uuidType = reflect.TypeOf(uuid.UUID{})
	timeType = reflect.TypeOf(time.Time{})
)

// Informer derives GraphQL input object types from Go struct types.
//
// Results are cached per Go type, so asking twice for the same type returns
// the same reference and registers no new types. Informer is safe for
// concurrent use.
type Informer struct {
	mu     sync.Mutex
	refs   map[reflect.Type]*schema.TypeRef
	types  map[string]*schema.Type
	owners map[string]reflect.Type
	order  []string
	nameOf func(reflect.Type) (string, bool)
}

var _ mutation.TypeIntrospector = (*Informer)(nil)

type Option func(*Informer)

// WithNames names the input type of every struct known to nameOf after
// that name instead of its Go type name. Registered commands use it so
// that a command registered as "DropCart" gets DropCartInput.
func WithNames(nameOf func(reflect.Type) (string, bool)) Option {
	return func(in *Informer) { in.nameOf = nameOf }
}

func New(opts ...Option) *Informer {
	in := &Informer{
		refs:   make(map[reflect.Type]*schema.TypeRef),
		types:  make(map[string]*schema.Type),
		owners: make(map[string]reflect.Type),
	}
	for _, o := range opts {
		o(in)
	}
	return in
}

// InputTypeFor returns a named reference to the input object derived from
// t, which must be a struct or a pointer to one. Failures are reported as
// *mutation.IntrospectionError and leave the informer unchanged.
func (in *Informer) InputTypeFor(t reflect.Type) (*schema.TypeRef, error) {
	if t == nil {
		return nil, &mutation.IntrospectionError{Type: t, Reason: "nil type"}
	}
	root := t
	for root.Kind() == reflect.Ptr {
		root = root.Elem()
	}
	if root.Kind() != reflect.Struct || root == uuidType || root == timeType {
		return nil, &mutation.IntrospectionError{Type: t, Reason: "command types must be structs"}
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if ref, ok := in.refs[root]; ok {
		return ref, nil
	}

	tx := &walk{in: in, root: t}
	ref, err := tx.object(root, nil)
	if err != nil {
		tx.rollback()
		return nil, err
	}
	return ref, nil
}

// Types returns every input type and custom scalar derived so far, in the
// order they were first derived.
func (in *Informer) Types() []*schema.Type {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]*schema.Type, 0, len(in.order))
	for _, name := range in.order {
		out = append(out, in.types[name])
	}
	return out
}

// walk holds the state of one InputTypeFor call so a failure can undo the
// types it added.
type walk struct {
	in    *Informer
	root  reflect.Type
	added []reflect.Type
	names []string
}

func (w *walk) fail(path []string, format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)
	if len(path) > 0 {
		reason = "field " + strings.Join(path, ".") + ": " + reason
	}
	return &mutation.IntrospectionError{Type: w.root, Reason: reason}
}

func (w *walk) rollback() {
	for _, t := range w.added {
		delete(w.in.refs, t)
	}
	for _, name := range w.names {
		delete(w.in.types, name)
		delete(w.in.owners, name)
	}
	if len(w.names) > 0 {
		w.in.order = w.in.order[:len(w.in.order)-len(w.names)]
	}
}

func (w *walk) register(t reflect.Type, typ *schema.Type) {
	w.in.types[typ.Name] = typ
	w.in.owners[typ.Name] = t
	w.in.order = append(w.in.order, typ.Name)
	w.names = append(w.names, typ.Name)
}

// object returns the named input type for struct t, registering it first so
// that self references through pointers or slices terminate.
func (w *walk) object(t reflect.Type, path []string) (*schema.TypeRef, error) {
	if ref, ok := w.in.refs[t]; ok {
		return ref, nil
	}
	if t.Name() == "" {
		return nil, w.fail(path, "anonymous struct types cannot be named")
	}
	name := t.Name() + "Input"
	if w.in.nameOf != nil {
		if n, ok := w.in.nameOf(t); ok {
			name = n + "Input"
		}
	}
	if owner, ok := w.in.owners[name]; ok && owner != t {
		return nil, w.fail(path, "input type %s is already derived from %s", name, owner)
	}

	typ := schema.NewType(name, schema.TypeKindInputObject, "")
	ref := schema.NamedType(name)
	w.in.refs[t] = ref
	w.added = append(w.added, t)
	w.register(t, typ)

	if err := w.fields(typ, t, path); err != nil {
		return nil, err
	}
	if len(typ.InputFields) == 0 {
		return nil, w.fail(path, "%s has no exported fields", t)
	}
	return ref, nil
}

func (w *walk) fields(typ *schema.Type, t reflect.Type, path []string) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("graphql")
		if tag == "-" {
			continue
		}
		if sf.Anonymous && tag == "" {
			et := sf.Type
			if et.Kind() == reflect.Ptr {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && et != uuidType && et != timeType {
				if err := w.fields(typ, et, path); err != nil {
					return err
				}
				continue
			}
		}
		name := strings.Split(tag, ",")[0]
		if name == "" {
			name = lowerCamel(sf.Name)
		}
		if typ.InputField(name) != nil {
			return w.fail(append(path, name), "duplicate field name")
		}
		ref, err := w.typeRef(sf.Type, append(path, name))
		if err != nil {
			return err
		}
		typ.AddInputField(schema.NewInputValue(name, sf.Tag.Get("description"), ref))
	}
	return nil
}

// typeRef maps a Go field type. Value types are Non-Null; pointers and
// slices are nullable.
func (w *walk) typeRef(t reflect.Type, path []string) (*schema.TypeRef, error) {
	switch t {
	case uuidType:
		return schema.NonNullType(schema.NamedType("ID")), nil
	case timeType:
		if _, ok := w.in.types[schema.DateTimeType.Name]; !ok {
			w.register(t, schema.DateTimeType)
		}
		return schema.NonNullType(schema.NamedType(schema.DateTimeType.Name)), nil
	}

	switch t.Kind() {
	case reflect.Ptr:
		if t.Elem().Kind() == reflect.Ptr {
			return nil, w.fail(path, "pointer to pointer is not supported")
		}
		inner, err := w.typeRef(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		return nullable(inner), nil
	case reflect.Slice, reflect.Array:
		if isList(t.Elem()) {
			return nil, w.fail(path, "nested lists are not supported")
		}
		elem, err := w.typeRef(t.Elem(), path)
		if err != nil {
			return nil, err
		}
		if t.Kind() == reflect.Array {
			return schema.NonNullType(schema.ListType(elem)), nil
		}
		return schema.ListType(elem), nil
	case reflect.Struct:
		ref, err := w.object(t, path)
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(ref), nil
	case reflect.String:
		return schema.NonNullType(schema.NamedType("String")), nil
	case reflect.Bool:
		return schema.NonNullType(schema.NamedType("Boolean")), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return schema.NonNullType(schema.NamedType("Int")), nil
	case reflect.Float32, reflect.Float64:
		return schema.NonNullType(schema.NamedType("Float")), nil
	default:
		return nil, w.fail(path, "unsupported kind %s", t.Kind())
	}
}

// isList reports whether t, through any pointers, maps to a GraphQL list.
func isList(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

func nullable(ref *schema.TypeRef) *schema.TypeRef {
	if ref.IsNonNull() {
		return ref.OfType
	}
	return ref
}

// lowerCamel lowercases the leading upper-case run of a Go identifier,
// keeping the last capital of an initialism: "ID" -> "id",
// "CartID" -> "cartID", "URLPath" -> "urlPath". A plural initialism is
// lowercased whole: "IDs" -> "ids", "URLsFor" -> "urlsFor".
func lowerCamel(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n == 0 {
		return s
	}
	plural := n > 1 && n < len(runes) && runes[n] == 's' &&
		(n+1 == len(runes) || unicode.IsUpper(runes[n+1]))
	if n > 1 && n < len(runes) && !plural {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
