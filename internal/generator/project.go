package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hanpama/boost/internal/config"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// BoostVersion is the boost release generated projects require.
const BoostVersion = "v0.1.0"

// GoVersion is written to the go directive of generated projects.
const GoVersion = "1.24"

// ProjectDirs are created empty by Project.
var ProjectDirs = []string{"commands", "common", "config", "entities", "events", "read-models"}

var projectNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateProjectName accepts names usable as a directory and binary name.
func ValidateProjectName(name string) error {
	if len(name) == 0 || len(name) > 100 {
		return fmt.Errorf("project name must be 1-100 characters")
	}
	if !projectNameRe.MatchString(name) {
		return fmt.Errorf("project name can only contain letters, numbers, dashes, and underscores")
	}
	return nil
}

// ModuleFor derives a module path from the repository URL, falling back to
// the project name.
func ModuleFor(name, repository string) string {
	repo := strings.TrimSuffix(repository, ".git")
	if i := strings.Index(repo, "://"); i >= 0 {
		repo = repo[i+3:]
	}
	repo = strings.TrimPrefix(repo, "git@")
	repo = strings.Replace(repo, ":", "/", 1)
	if module.CheckPath(repo) == nil {
		return repo
	}
	return name
}

// GoMod renders the go.mod of a new project.
func GoMod(modulePath string) ([]byte, error) {
	f := new(modfile.File)
	if err := f.AddModuleStmt(modulePath); err != nil {
		return nil, err
	}
	if err := f.AddGoStmt(GoVersion); err != nil {
		return nil, err
	}
	if err := f.AddRequire("github.com/hanpama/boost", BoostVersion); err != nil {
		return nil, err
	}
	return f.Format()
}

// ProjectRoot creates dir and the empty placement directories.
func ProjectRoot(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, dir)
	}
	for _, d := range ProjectDirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ProjectFiles writes boost.yaml, go.mod, main.go and the supporting files
// of a new project into dir.
func ProjectFiles(dir string, cfg *config.Config) error {
	if err := config.Write(dir, cfg); err != nil {
		return err
	}
	gomod, err := GoMod(cfg.Module)
	if err != nil {
		return fmt.Errorf("generator: go.mod: %w", err)
	}
	if err := writeNew(filepath.Join(dir, "go.mod"), gomod); err != nil {
		return err
	}
	files := []struct{ path, tmpl string }{
		{"main.go", "main.go.tmpl"},
		{filepath.Join(CommandsDir, "doc.go"), "commands_doc.go.tmpl"},
		{".gitignore", "gitignore.tmpl"},
		{"README.md", "readme.md.tmpl"},
	}
	for _, f := range files {
		src, err := render(f.tmpl, cfg)
		if err != nil {
			return err
		}
		if err := writeNew(filepath.Join(dir, f.path), src); err != nil {
			return err
		}
	}
	return nil
}
