package protoreg

import (
	"io"
	"os"
	"path/filepath"

	"github.com/jhump/protoreflect/v2/protoprint"
)

// Render prints the CommandService file as .proto source.
func (r *Registry) Render(w io.Writer) error {
	pp := protoprint.Printer{}
	return pp.PrintProtoFile(r.file, w)
}

// RenderDir writes the proto file below outDir at its package path and
// returns the written path.
func (r *Registry) RenderDir(outDir string) (string, error) {
	fp := filepath.Join(outDir, filepath.FromSlash(r.file.Path()))
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(fp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return "", err
	}
	return fp, f.Close()
}
