package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/hanpama/boost/internal/config"
	"github.com/hanpama/boost/internal/generator"
	"github.com/hanpama/boost/internal/log"
	"github.com/spf13/cobra"
)

// typeKind describes one of the new:<kind> generators.
type typeKind struct {
	name     string
	short    string
	reduces  bool
	generate func(root string, t *generator.Target) (string, error)
}

func newEntityCommand(env *Env) *cobra.Command {
	return newTypeCommand(env, typeKind{
		name:     "entity",
		short:    "create a new entity",
		reduces:  true,
		generate: generator.Entity,
	})
}

func newCommandCommand(env *Env) *cobra.Command {
	return newTypeCommand(env, typeKind{
		name:     "command",
		short:    "create a new command",
		generate: generator.Command,
	})
}

func newEventCommand(env *Env) *cobra.Command {
	return newTypeCommand(env, typeKind{
		name:     "event",
		short:    "create a new event",
		generate: generator.Event,
	})
}

func newTypeCommand(env *Env, k typeKind) *cobra.Command {
	var fields, reduces []string
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("new:%s <name>", k.name),
		Short: k.short,
		Long: heredoc.Docf(`
			Generate a new %[1]s in the %[1]ss directory of the current project.

			Fields are given as name:type pairs. Types are Go type expressions
			built from the predeclared types, UUID and time.Time, for example
			string, []int, UUID or *time.Time.
		`, k.name),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return fmt.Errorf("You haven't provided %s %s name, but it is required, run with --help for usage", article(k.name), k.name)
			}
			target, err := generator.ParseTarget(args[0], fields, reduces)
			if err != nil {
				return err
			}
			return runNewType(cmd, env, k, target)
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "fields", "f", nil, fmt.Sprintf("fields that this %s will contain", k.name))
	if k.reduces {
		cmd.Flags().StringArrayVarP(&reduces, "reduces", "p", nil, "events that this entity will reduce to build its state")
	}
	return cmd
}

func runNewType(cmd *cobra.Command, env *Env, k typeKind, target *generator.Target) error {
	logger := log.FromContext(cmd.Context())
	var root string
	return NewScript(env.Out, fmt.Sprintf("boost %s", cmd.Name())).
		Step("Verifying project", func() error {
			var err error
			root, err = config.FindRoot(env.WorkDir)
			return err
		}).
		Step(fmt.Sprintf("Creating new %s", k.name), func() error {
			path, err := k.generate(root, target)
			if err != nil {
				return err
			}
			logger.V(1).Info("generated", "kind", k.name, "path", path)
			return nil
		}).
		Info(fmt.Sprintf("%s generated!", capitalize(k.name))).
		Done()
}

func article(word string) string {
	switch word[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}

func capitalize(s string) string {
	return generator.PascalCase(s)
}
