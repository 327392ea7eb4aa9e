// Package cli implements the boost scaffolding commands.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/hanpama/boost/internal/log"
	"github.com/spf13/cobra"
)

// Env is what the commands read from and write to.
type Env struct {
	Out      io.Writer
	Err      io.Writer
	WorkDir  string
	Prompter Prompter
	Runner   Runner
}

// DefaultEnv is the terminal environment of the boost binary.
func DefaultEnv() (*Env, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Env{
		Out:      os.Stdout,
		Err:      os.Stderr,
		WorkDir:  wd,
		Prompter: SurveyPrompter{},
		Runner:   ExecRunner{},
	}, nil
}

// NewRootCommand builds the boost command tree.
func NewRootCommand(env *Env) *cobra.Command {
	var verbosity int
	root := &cobra.Command{
		Use:   "boost",
		Short: "Scaffold and manage boost applications",
		Long: heredoc.Doc(`
			boost scaffolds event-sourced, command-driven Go applications.

			Commands become GraphQL mutations that are dispatched to their
			handlers in-process or over gRPC.
		`),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := log.New(env.Err, "boost", verbosity)
			cmd.SetContext(log.WithLogger(cmd.Context(), logger))
		},
	}
	root.PersistentFlags().CountVar(&verbosity, "verbose", "increase log verbosity (repeatable)")
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	root.AddCommand(
		newProjectCommand(env),
		newEntityCommand(env),
		newCommandCommand(env),
		newEventCommand(env),
	)
	return root
}

// Execute runs the command line args against env.
func Execute(ctx context.Context, env *Env, args []string) error {
	root := NewRootCommand(env)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
