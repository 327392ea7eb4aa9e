package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/hanpama/boost/internal/cli"
	"github.com/hanpama/boost/internal/config"
	"github.com/hanpama/boost/internal/deploy"
	"github.com/hanpama/boost/internal/eventbus"
	"github.com/hanpama/boost/internal/log"
	"github.com/hanpama/boost/internal/otel"
	"github.com/hanpama/boost/internal/schema"
	"github.com/spf13/cobra"
)

// IO is where the app commands read and write.
type IO struct {
	Out     io.Writer
	Err     io.Writer
	WorkDir string
}

// Main runs the app command line and returns the process exit code.
func Main(a *App, args []string) int {
	wd, err := os.Getwd()
	if err != nil {
		cli.PrintError(os.Stderr, err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := Execute(ctx, a, IO{Out: os.Stdout, Err: os.Stderr, WorkDir: wd}, args); err != nil {
		cli.PrintError(os.Stderr, err)
		return 1
	}
	return 0
}

// Execute runs args against a.
func Execute(ctx context.Context, a *App, stdio IO, args []string) error {
	root := NewCommand(a, stdio)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

type rootOptions struct {
	dir       string
	verbosity int
}

// loadConfig reads boost.yaml, falling back to defaults when the app runs
// outside a project.
func (o *rootOptions) loadConfig(ctx context.Context, a *App, stdio IO) (*config.Config, error) {
	dir := o.dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(stdio.WorkDir, dir)
	}
	cfg, err := config.Load(dir)
	if errors.Is(err, config.ErrNotAProject) {
		log.FromContext(ctx).V(1).Info("no project file, using defaults", "dir", dir)
		return config.Default(a.Name()), nil
	}
	return cfg, err
}

// NewCommand builds the command tree of a.
func NewCommand(a *App, stdio IO) *cobra.Command {
	o := &rootOptions{dir: "."}
	root := &cobra.Command{
		Use:           a.Name(),
		Short:         fmt.Sprintf("Run the %s application", a.Name()),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := log.New(stdio.Err, a.Name(), o.verbosity)
			cmd.SetContext(log.WithLogger(cmd.Context(), logger))
		},
	}
	root.PersistentFlags().StringVar(&o.dir, "dir", o.dir, "directory inside the project")
	root.PersistentFlags().CountVarP(&o.verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	root.SetOut(stdio.Out)
	root.SetErr(stdio.Err)

	root.AddCommand(
		compileSDLCommand(a, stdio, o),
		compileProtoCommand(a, stdio, o),
		execCommand(a, stdio, o),
		serveHandlersCommand(a, stdio, o),
		deployCommand(a, stdio, o),
		nukeCommand(a, stdio, o),
	)
	return root
}

// withRuntime loads the configuration, sets up telemetry and builds the
// runtime for the duration of fn.
func withRuntime(cmd *cobra.Command, a *App, stdio IO, o *rootOptions, fn func(ctx context.Context, rt *Runtime) error) error {
	ctx := cmd.Context()
	cfg, err := o.loadConfig(ctx, a, stdio)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	shutdown, err := otel.Setup(ctx, cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	rt, err := a.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func writeOutput(stdio IO, path string, data []byte) error {
	if path == "" {
		_, err := stdio.Out.Write(data)
		return err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(stdio.WorkDir, path)
	}
	return os.WriteFile(path, data, 0o644)
}

func compileSDLCommand(a *App, stdio IO, o *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "compile-sdl",
		Short: "Build, validate and print the GraphQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, a, stdio, o, func(ctx context.Context, rt *Runtime) error {
				return writeOutput(stdio, out, []byte(schema.Render(rt.Schema)))
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the schema to a file instead of stdout")
	return cmd
}

func compileProtoCommand(a *App, stdio IO, o *rootOptions) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "compile-proto",
		Short: "Render the CommandService .proto file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, a, stdio, o, func(ctx context.Context, rt *Runtime) error {
				if outDir == "" {
					return rt.Protos.Render(stdio.Out)
				}
				if !filepath.IsAbs(outDir) {
					outDir = filepath.Join(stdio.WorkDir, outDir)
				}
				path, err := rt.Protos.RenderDir(outDir)
				if err != nil {
					return fmt.Errorf("render proto: %w", err)
				}
				log.FromContext(ctx).Info("wrote proto file", "path", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: stdout)")
	return cmd
}

func execCommand(a *App, stdio IO, o *rootOptions) *cobra.Command {
	var (
		variables string
		operation string
	)
	cmd := &cobra.Command{
		Use:   "exec <query>",
		Short: "Execute one GraphQL operation and print the JSON result",
		Example: heredoc.Doc(`
			shop exec 'mutation { AddItem(input: {sku: "A-1", quantity: 2}) }'
			shop exec 'mutation($in: AddItemInput!) { AddItem(input: $in) }' --variables '{"in": {"sku": "A-1", "quantity": 2}}'
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var vars map[string]any
			if variables != "" {
				if err := json.Unmarshal([]byte(variables), &vars); err != nil {
					return fmt.Errorf("invalid --variables: %w", err)
				}
			}
			return withRuntime(cmd, a, stdio, o, func(ctx context.Context, rt *Runtime) error {
				result := rt.Execute(ctx, args[0], operation, vars)
				enc := json.NewEncoder(stdio.Out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("operation finished with %d error(s)", len(result.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&variables, "variables", "", "variables as a JSON object")
	cmd.Flags().StringVar(&operation, "operation", "", "name of the operation to execute")
	return cmd
}

func serveHandlersCommand(a *App, stdio IO, o *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve-handlers",
		Short: "Serve the command handlers as a gRPC CommandService",
		Long: heredoc.Doc(`
			Serve the in-process command handlers over gRPC. Applications
			configured with the grpc provider dispatch their mutations here.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, a, stdio, o, func(ctx context.Context, rt *Runtime) error {
				addr := rt.Config.GRPC.Listen
				if listen != "" {
					addr = listen
				}
				return rt.Server().Serve(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: grpc.listen)")
	return cmd
}

func deployCommand(a *App, stdio IO, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Publish the compiled schema and CommandService to the toolkit bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd, a, stdio, o, func(ctx context.Context, rt *Runtime, sc *deploy.StackConfiguration) error {
				var proto bytes.Buffer
				if err := rt.Protos.Render(&proto); err != nil {
					return err
				}
				return deploy.Deploy(ctx, sc, deploy.Artifacts{
					Schema:   []byte(schema.Render(rt.Schema)),
					Proto:    proto.Bytes(),
					Commands: a.Commands(),
				}, log.FromContext(ctx))
			})
		},
	}
}

func nukeCommand(a *App, stdio IO, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nuke",
		Short: "Remove every deployed artifact of the application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd, a, stdio, o, func(ctx context.Context, rt *Runtime, sc *deploy.StackConfiguration) error {
				return deploy.Nuke(ctx, sc, log.FromContext(ctx))
			})
		},
	}
}

func withStack(cmd *cobra.Command, a *App, stdio IO, o *rootOptions, fn func(context.Context, *Runtime, *deploy.StackConfiguration) error) error {
	return withRuntime(cmd, a, stdio, o, func(ctx context.Context, rt *Runtime) error {
		bucket, err := deploy.OpenBucket(ctx, rt.Config)
		if err != nil {
			return err
		}
		defer bucket.Close()
		sc, err := deploy.GetStackConfiguration(rt.Config, bucket)
		if err != nil {
			return err
		}
		return fn(ctx, rt, sc)
	})
}
