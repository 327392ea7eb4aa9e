// Package generator renders project sources from templates.
package generator

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/mod/modfile"
)

//go:embed templates/*
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// ErrExists is returned instead of overwriting a file.
var ErrExists = errors.New("generator: file already exists")

// Placement directories relative to the project root.
const (
	CommandsDir = "commands"
	EntitiesDir = "entities"
	EventsDir   = "events"
)

type typeData struct {
	*Target
	Project string
	Imports []string
}

// render executes the named template. Go sources are gofmt'ed.
func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("generator: render %s: %w", name, err)
	}
	if !strings.HasSuffix(name, ".go.tmpl") {
		return buf.Bytes(), nil
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generator: format %s: %w", name, err)
	}
	return src, nil
}

// writeNew writes data to path, failing when path exists.
func writeNew(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ModulePath reads the module path from root/go.mod.
func ModulePath(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("generator: read go.mod: %w", err)
	}
	mod := modfile.ModulePath(data)
	if mod == "" {
		return "", fmt.Errorf("generator: go.mod in %s has no module statement", root)
	}
	return mod, nil
}

func mergeImports(base []string, extra ...string) []string {
	set := map[string]bool{}
	for _, s := range append(append([]string(nil), base...), extra...) {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func generateType(root, dir, tmpl string, t *Target, imports []string) (string, error) {
	data := typeData{Target: t, Project: filepath.Base(root), Imports: imports}
	src, err := render(tmpl, data)
	if err != nil {
		return "", err
	}
	path := filepath.Join(root, dir, SnakeCase(t.Name)+".go")
	if err := writeNew(path, src); err != nil {
		return "", err
	}
	return path, nil
}

// Entity writes entities/<name>.go with a Reduce function per event.
func Entity(root string, t *Target) (string, error) {
	imports := mergeImports(t.Imports, BoostImport)
	if len(t.Events) > 0 {
		mod, err := ModulePath(root)
		if err != nil {
			return "", err
		}
		imports = mergeImports(imports, mod+"/"+EventsDir)
	}
	return generateType(root, EntitiesDir, "entity.go.tmpl", t, imports)
}

// Command writes commands/<name>.go with a Handle method.
func Command(root string, t *Target) (string, error) {
	return generateType(root, CommandsDir, "command.go.tmpl", t, mergeImports(t.Imports, BoostImport))
}

// Event writes events/<name>.go.
func Event(root string, t *Target) (string, error) {
	return generateType(root, EventsDir, "event.go.tmpl", t, mergeImports(t.Imports))
}
