package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"
	"unicode"
)

// BoostImport is the import path of the package generated code builds on.
const BoostImport = "github.com/hanpama/boost/pkg/boost"

// Field is one struct field of a generated type.
type Field struct {
	Name string
	Type string
}

// Target describes a type to generate.
type Target struct {
	Name   string
	Fields []Field
	// Events lists the events an entity reduces.
	Events []string
	// Imports is derived from the field types.
	Imports []string
}

// ParseTarget parses the raw command line values of a new:* command.
func ParseTarget(name string, rawFields, rawEvents []string) (*Target, error) {
	n, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	fields, imports, err := ParseFields(rawFields)
	if err != nil {
		return nil, err
	}
	evs, err := ParseReactions(rawEvents)
	if err != nil {
		return nil, err
	}
	return &Target{Name: n, Fields: fields, Events: evs, Imports: imports}, nil
}

// ParseName converts a user supplied name into an exported Go identifier.
// "cart-item", "cart_item" and "cartItem" all become "CartItem".
func ParseName(name string) (string, error) {
	out := PascalCase(name)
	if out == "" || !token.IsIdentifier(out) || !token.IsExported(out) {
		return "", fmt.Errorf("invalid name %q", name)
	}
	return out, nil
}

// ParseFields parses "name:type" pairs. Types are Go type expressions built
// from predeclared types, UUID and time.Time.
func ParseFields(raw []string) ([]Field, []string, error) {
	imports := map[string]bool{}
	seen := map[string]bool{}
	fields := make([]Field, 0, len(raw))
	for _, r := range raw {
		name, typ, ok := strings.Cut(r, ":")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(typ) == "" {
			return nil, nil, fmt.Errorf("invalid field %q: expected name:type", r)
		}
		fieldName, err := ParseName(strings.TrimSpace(name))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid field %q: %w", r, err)
		}
		if seen[fieldName] {
			return nil, nil, fmt.Errorf("duplicate field %s", fieldName)
		}
		seen[fieldName] = true
		expr, err := parser.ParseExpr(strings.TrimSpace(typ))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid type for field %s: %w", fieldName, err)
		}
		rendered, err := renderType(expr, imports)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid type for field %s: %w", fieldName, err)
		}
		fields = append(fields, Field{Name: fieldName, Type: rendered})
	}
	out := make([]string, 0, len(imports))
	for imp := range imports {
		out = append(out, imp)
	}
	sort.Strings(out)
	return fields, out, nil
}

// ParseReactions parses the event names an entity reduces.
func ParseReactions(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := map[string]bool{}
	for _, r := range raw {
		n, err := ParseName(r)
		if err != nil {
			return nil, fmt.Errorf("invalid event: %w", err)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

var predeclared = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
}

var qualified = map[string]map[string]string{
	"time":  {"Time": "time"},
	"boost": {"UUID": BoostImport},
}

func renderType(expr ast.Expr, imports map[string]bool) (string, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		if predeclared[e.Name] {
			return e.Name, nil
		}
		if e.Name == "UUID" {
			imports[BoostImport] = true
			return "boost.UUID", nil
		}
		return "", fmt.Errorf("unknown type %s", e.Name)
	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			return "", fmt.Errorf("unsupported type expression")
		}
		path, ok := qualified[pkg.Name][e.Sel.Name]
		if !ok {
			return "", fmt.Errorf("unknown type %s.%s", pkg.Name, e.Sel.Name)
		}
		imports[path] = true
		return pkg.Name + "." + e.Sel.Name, nil
	case *ast.StarExpr:
		inner, err := renderType(e.X, imports)
		if err != nil {
			return "", err
		}
		return "*" + inner, nil
	case *ast.ArrayType:
		if e.Len != nil {
			return "", fmt.Errorf("arrays are not supported, use a slice")
		}
		inner, err := renderType(e.Elt, imports)
		if err != nil {
			return "", err
		}
		return "[]" + inner, nil
	case *ast.MapType:
		return "", fmt.Errorf("map types are not supported")
	default:
		return "", fmt.Errorf("unsupported type expression")
	}
}

var initialisms = map[string]string{
	"id": "ID", "uuid": "UUID", "url": "URL", "api": "API", "http": "HTTP", "json": "JSON", "sku": "SKU",
}

// PascalCase joins the words of s, capitalising each.
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		if up, ok := initialisms[strings.ToLower(w)]; ok {
			b.WriteString(up)
			continue
		}
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// SnakeCase lowercases the words of s and joins them with underscores.
func SnakeCase(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}

// words splits s at separators and lower-to-upper case changes, keeping
// runs of capitals such as "ID" together.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}
