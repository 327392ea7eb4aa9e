package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/pmezard/go-difflib/difflib"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Artifacts are the compiled outputs of an app.
type Artifacts struct {
	Schema   []byte
	Proto    []byte
	Commands []string
}

// Option configures Deploy.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for timestamps written to the bucket.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) *options {
	o := &options{now: time.Now}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// Deploy bootstraps the toolkit stack if needed and uploads artifacts as
// the application stack. Progress and failures are logged through logger.
func Deploy(ctx context.Context, sc *StackConfiguration, artifacts Artifacts, logger logr.Logger, opts ...Option) error {
	if err := deploy(ctx, sc, artifacts, logger, newOptions(opts)); err != nil {
		logger.Error(err, "Deployment failed", "app", sc.Config.Name)
		return err
	}
	return nil
}

func deploy(ctx context.Context, sc *StackConfiguration, artifacts Artifacts, logger logr.Logger, o *options) error {
	logger.Info("Deploying application", "app", sc.Config.Name, "bucket", sc.Config.Deploy.Bucket)

	if err := bootstrap(ctx, sc, logger, o); err != nil {
		return err
	}

	previous, err := readIfExists(ctx, sc.Bucket, sc.Stacks.appKey(schemaFile))
	if err != nil {
		return err
	}
	if previous == nil {
		logger.Info("First deployment of the application stack", "stack", sc.Stacks.App)
	} else {
		diff, err := schemaDiff(previous, artifacts.Schema)
		if err != nil {
			return err
		}
		if diff == "" {
			logger.Info("Schema unchanged", "stack", sc.Stacks.App)
		} else {
			logger.Info("Schema changes", "stack", sc.Stacks.App, "diff", diff)
		}
	}

	manifest := Manifest{
		App:        sc.Config.Name,
		Version:    sc.Config.Version,
		Provider:   sc.Config.Provider,
		Commands:   artifacts.Commands,
		Files:      []string{schemaFile, protoFile},
		DeployedAt: o.now().UTC(),
	}
	if manifest.Commands == nil {
		manifest.Commands = []string{}
	}
	manifestBytes, err := marshal(manifest)
	if err != nil {
		return fmt.Errorf("deploy: marshal manifest: %w", err)
	}

	uploads := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{schemaFile, "application/graphql", artifacts.Schema},
		{protoFile, "text/plain; charset=utf-8", artifacts.Proto},
		{manifestFile, "application/yaml", manifestBytes},
	}
	for _, u := range uploads {
		key := sc.Stacks.appKey(u.name)
		logger.V(1).Info("Uploading", "key", key, "bytes", len(u.body))
		if err := sc.Bucket.WriteAll(ctx, key, u.body, &blob.WriterOptions{ContentType: u.contentType}); err != nil {
			return fmt.Errorf("deploy: upload %s: %w", key, err)
		}
	}

	logger.Info("Deployment complete", "stack", sc.Stacks.App)
	return nil
}

// bootstrap writes the toolkit marker unless it exists.
func bootstrap(ctx context.Context, sc *StackConfiguration, logger logr.Logger, o *options) error {
	key := sc.Stacks.markerKey()
	ok, err := sc.Bucket.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("deploy: check toolkit: %w", err)
	}
	if ok {
		logger.Info("Toolkit stack already bootstrapped", "stack", sc.Stacks.Toolkit)
		return nil
	}
	logger.Info("Bootstrapping toolkit stack", "stack", sc.Stacks.Toolkit)
	b, err := marshal(Toolkit{
		App:          sc.Config.Name,
		Bucket:       sc.Stacks.Bucket,
		Bootstrapped: o.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("deploy: marshal toolkit: %w", err)
	}
	if err := sc.Bucket.WriteAll(ctx, key, b, &blob.WriterOptions{ContentType: "application/yaml"}); err != nil {
		return fmt.Errorf("deploy: bootstrap toolkit: %w", err)
	}
	return nil
}

// readIfExists returns nil without error for a missing key.
func readIfExists(ctx context.Context, b *blob.Bucket, key string) ([]byte, error) {
	data, err := b.ReadAll(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deploy: read %s: %w", key, err)
	}
	return data, nil
}

// schemaDiff returns a unified diff from the deployed schema to the new one,
// or "" when they are equal.
func schemaDiff(deployed, local []byte) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(deployed)),
		B:        difflib.SplitLines(string(local)),
		FromFile: "deployed/" + schemaFile,
		ToFile:   "local/" + schemaFile,
		Context:  3,
	})
}
