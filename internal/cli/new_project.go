package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/hanpama/boost/internal/config"
	"github.com/hanpama/boost/internal/generator"
	"github.com/hanpama/boost/internal/log"
	"github.com/spf13/cobra"
)

var errMissingProjectName = errors.New("You haven't provided a project name, but it is required, run with --help for usage")

type projectOptions struct {
	author      string
	description string
	homepage    string
	license     string
	provider    string
	repository  string
	version     string
	useDefaults bool
	skipInstall bool
	skipGit     bool
}

func newProjectCommand(env *Env) *cobra.Command {
	o := &projectOptions{}
	cmd := &cobra.Command{
		Use:   "new:project <name>",
		Short: "create a new project from scratch",
		Long: heredoc.Doc(`
			Create a new boost project in a directory named after the project.

			Answers that are not given as flags are prompted for, unless
			--default is set.
		`),
		Example: heredoc.Doc(`
			boost new:project shop
			boost new:project shop -a "Jane Doe" -l MIT -r github.com/acme/shop --default
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return errMissingProjectName
			}
			return runNewProject(cmd, env, args[0], o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.author, "author", "a", "", "author of the project")
	f.StringVarP(&o.description, "description", "d", "", "a short description")
	f.StringVarP(&o.homepage, "homepage", "H", "", "the website of the project")
	f.StringVarP(&o.license, "license", "l", "", "license used in the project")
	f.StringVarP(&o.provider, "providerPackageName", "p", "", "command provider: local or grpc")
	f.StringVarP(&o.repository, "repository", "r", "", "the URL of the repository")
	f.StringVarP(&o.version, "version", "v", "", "the initial version")
	f.BoolVar(&o.useDefaults, "default", false, "use default answers instead of prompting")
	f.BoolVar(&o.skipInstall, "skip-install", false, "skip running go mod tidy")
	f.BoolVar(&o.skipGit, "skip-git", false, "skip initializing a git repository")
	return cmd
}

// ask fills the answers missing from the flags.
func (o *projectOptions) ask(cmd *cobra.Command, p Prompter) error {
	questions := []struct {
		flag    string
		message string
		def     string
		target  *string
	}{
		{"description", "What's your project description?", "", &o.description},
		{"version", "What's the first version?", "0.1.0", &o.version},
		{"author", "Who's the author?", "", &o.author},
		{"homepage", "What's the website?", "", &o.homepage},
		{"license", "What license are you using?", "MIT", &o.license},
		{"repository", "What's your repository URL?", "", &o.repository},
	}
	for _, q := range questions {
		if cmd.Flags().Changed(q.flag) {
			continue
		}
		if o.useDefaults {
			*q.target = q.def
			continue
		}
		answer, err := p.Input(q.message, q.def)
		if err != nil {
			return err
		}
		*q.target = answer
	}
	if cmd.Flags().Changed("providerPackageName") {
		return nil
	}
	if o.useDefaults {
		o.provider = config.ProviderLocal
		return nil
	}
	answer, err := p.Select("Which provider will you use?", []string{config.ProviderLocal, config.ProviderGRPC}, config.ProviderLocal)
	if err != nil {
		return err
	}
	o.provider = answer
	return nil
}

func (o *projectOptions) config(name string) (*config.Config, error) {
	cfg := config.Default(name)
	cfg.Module = generator.ModuleFor(name, o.repository)
	cfg.Description = o.description
	cfg.Author = o.author
	cfg.Homepage = o.homepage
	cfg.License = o.license
	cfg.Repository = o.repository
	if o.version != "" {
		cfg.Version = o.version
	}
	if o.provider != "" {
		cfg.Provider = o.provider
	}
	if cfg.Provider == config.ProviderGRPC {
		cfg.GRPC.Endpoints = []string{"localhost" + cfg.GRPC.Listen}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runNewProject(cmd *cobra.Command, env *Env, name string, o *projectOptions) error {
	if err := generator.ValidateProjectName(name); err != nil {
		return err
	}
	if err := o.ask(cmd, env.Prompter); err != nil {
		return err
	}
	cfg, err := o.config(name)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := log.FromContext(ctx)
	dir := filepath.Join(env.WorkDir, name)
	logger.V(1).Info("generating project", "dir", dir, "module", cfg.Module, "provider", cfg.Provider)

	return NewScript(env.Out, fmt.Sprintf("boost %s", cmd.Name())).
		Step("Creating project root", func() error { return generator.ProjectRoot(dir) }).
		Step("Generating config files", func() error { return generator.ProjectFiles(dir, cfg) }).
		OptionalStep(o.skipInstall, "Installing dependencies", func() error {
			return env.Runner.Run(ctx, dir, "go", "mod", "tidy")
		}).
		OptionalStep(o.skipGit, "Initializing git repository", func() error {
			return env.Runner.Run(ctx, dir, "git", "init")
		}).
		Info("Project generated!").
		Done()
}
