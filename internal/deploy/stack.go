// Package deploy publishes the compiled artifacts of an app to its toolkit
// bucket and removes them again.
//
// A deployment is made of two stacks living in the bucket
// "<app>-toolkit-bucket": the toolkit stack, whose marker object
// "<app>-toolkit/toolkit.yaml" is written once on bootstrap, and the
// application stack under "<app>-app/".
package deploy

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hanpama/boost/internal/config"
	"gocloud.dev/blob"

	// Registered bucket URL schemes.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

const (
	toolkitMarker = "toolkit.yaml"
	schemaFile    = "schema.graphql"
	protoFile     = "commands.proto"
	manifestFile  = "manifest.yaml"
)

// Stacks names the stacks of one app.
type Stacks struct {
	Toolkit string
	Bucket  string
	App     string
}

// StackNames returns the stack names derived from the app name.
func StackNames(app string) Stacks {
	return Stacks{
		Toolkit: app + "-toolkit",
		Bucket:  app + "-toolkit-bucket",
		App:     app + "-app",
	}
}

func (s Stacks) markerKey() string { return path.Join(s.Toolkit, toolkitMarker) }

func (s Stacks) appKey(name string) string { return path.Join(s.App, name) }

// StackConfiguration is everything Deploy and Nuke need to know about the
// target environment.
type StackConfiguration struct {
	Config *config.Config
	Stacks Stacks
	Bucket *blob.Bucket
}

// OpenBucket opens the bucket configured by deploy.bucket. Supported URL
// schemes are s3://, file:// and mem://.
func OpenBucket(ctx context.Context, cfg *config.Config) (*blob.Bucket, error) {
	if cfg.Deploy.Bucket == "" {
		return nil, fmt.Errorf("deploy: no bucket configured for %s", cfg.Name)
	}
	b, err := blob.OpenBucket(ctx, cfg.Deploy.Bucket)
	if err != nil {
		return nil, fmt.Errorf("deploy: open bucket %s: %w", cfg.Deploy.Bucket, err)
	}
	return b, nil
}

// GetStackConfiguration resolves the stacks of cfg against bucket.
func GetStackConfiguration(cfg *config.Config, bucket *blob.Bucket) (*StackConfiguration, error) {
	if cfg == nil || cfg.Name == "" {
		return nil, fmt.Errorf("deploy: app name is required")
	}
	if bucket == nil {
		return nil, fmt.Errorf("deploy: no bucket for %s", cfg.Name)
	}
	return &StackConfiguration{Config: cfg, Stacks: StackNames(cfg.Name), Bucket: bucket}, nil
}

// Toolkit is the content of the toolkit marker.
type Toolkit struct {
	App          string    `yaml:"app"`
	Bucket       string    `yaml:"bucket"`
	Bootstrapped time.Time `yaml:"bootstrapped"`
}

// Manifest describes one deployment of the application stack.
type Manifest struct {
	App        string    `yaml:"app"`
	Version    string    `yaml:"version,omitempty"`
	Provider   string    `yaml:"provider"`
	Commands   []string  `yaml:"commands"`
	Files      []string  `yaml:"files"`
	DeployedAt time.Time `yaml:"deployedAt"`
}

func marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
