package cli

import (
	"io"

	"github.com/fatih/color"
)

var (
	titleColor   = color.New(color.FgMagenta, color.Bold)
	stepColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	infoColor    = color.New(color.FgGreen, color.Bold)
)

// Script runs named steps in order and reports each on out. The first
// failing step stops the script; later steps are not run.
type Script struct {
	out io.Writer
	err error
}

// NewScript prints title and returns an empty script.
func NewScript(out io.Writer, title string) *Script {
	titleColor.Fprintln(out, title)
	return &Script{out: out}
}

// Step runs fn unless an earlier step failed.
func (s *Script) Step(name string, fn func() error) *Script {
	if s.err != nil {
		return s
	}
	stepColor.Fprintf(s.out, "ℹ %s\n", name)
	if err := fn(); err != nil {
		failureColor.Fprintf(s.out, "✖ %s\n", name)
		s.err = err
		return s
	}
	successColor.Fprintf(s.out, "✔ %s\n", name)
	return s
}

// OptionalStep is Step, reported as skipped when skip is set.
func (s *Script) OptionalStep(skip bool, name string, fn func() error) *Script {
	if s.err != nil {
		return s
	}
	if skip {
		stepColor.Fprintf(s.out, "- %s (skipped)\n", name)
		return s
	}
	return s.Step(name, fn)
}

// Info prints msg if every step succeeded.
func (s *Script) Info(msg string) *Script {
	if s.err == nil {
		infoColor.Fprintln(s.out, msg)
	}
	return s
}

// Done returns the error of the failed step, if any.
func (s *Script) Done() error {
	return s.err
}

// PrintError prints err the way the boost binaries report failures.
func PrintError(w io.Writer, err error) {
	failureColor.Fprintf(w, "Error: %s\n", err)
}
