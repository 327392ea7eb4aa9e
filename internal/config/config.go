// Package config loads and writes the boost.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"
)

// FileName is the project file that marks a boost project root.
const FileName = "boost.yaml"

// ErrNotAProject is returned when no boost.yaml is found.
var ErrNotAProject = errors.New("config: not a boost project (no " + FileName + " found)")

const (
	ProviderLocal = "local"
	ProviderGRPC  = "grpc"

	AcknowledgementBoolean = "boolean"
	AcknowledgementObject  = "object"
)

// Config is the content of boost.yaml.
type Config struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Module      string `mapstructure:"module" yaml:"module,omitempty"`
	Version     string `mapstructure:"version" yaml:"version,omitempty"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
	Author      string `mapstructure:"author" yaml:"author,omitempty"`
	Homepage    string `mapstructure:"homepage" yaml:"homepage,omitempty"`
	License     string `mapstructure:"license" yaml:"license,omitempty"`
	Repository  string `mapstructure:"repository" yaml:"repository,omitempty"`
	Provider    string `mapstructure:"provider" yaml:"provider"`

	GraphQL GraphQLConfig `mapstructure:"graphql" yaml:"graphql"`
	GRPC    GRPCConfig    `mapstructure:"grpc" yaml:"grpc"`
	Deploy  DeployConfig  `mapstructure:"deploy" yaml:"deploy,omitempty"`
	Otel    OtelConfig    `mapstructure:"otel" yaml:"otel,omitempty"`

	// Root is the directory holding boost.yaml. It is not serialised.
	Root string `mapstructure:"-" yaml:"-"`
}

type GraphQLConfig struct {
	Acknowledgement string `mapstructure:"acknowledgement" yaml:"acknowledgement"`
}

type GRPCConfig struct {
	Endpoints           []string      `mapstructure:"endpoints" yaml:"endpoints,omitempty"`
	Listen              string        `mapstructure:"listen" yaml:"listen"`
	RPCTimeout          time.Duration `mapstructure:"rpcTimeout" yaml:"rpcTimeout"`
	MaxConnsPerEndpoint int           `mapstructure:"maxConnsPerEndpoint" yaml:"maxConnsPerEndpoint"`
}

type DeployConfig struct {
	// Bucket is a gocloud blob URL.
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Service  string `mapstructure:"service" yaml:"service,omitempty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "")
	v.SetDefault("module", "")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("provider", ProviderLocal)
	v.SetDefault("graphql.acknowledgement", AcknowledgementBoolean)
	v.SetDefault("grpc.endpoints", []string{})
	v.SetDefault("grpc.listen", ":50051")
	v.SetDefault("grpc.rpcTimeout", "3s")
	v.SetDefault("grpc.maxConnsPerEndpoint", 2)
	v.SetDefault("deploy.bucket", "")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "")
}

// Default returns the configuration used for an app without boost.yaml.
func Default(name string) *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("name", name)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	cfg.fill()
	return &cfg
}

// FindRoot walks upward from dir to the first directory containing
// boost.yaml.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotAProject
		}
		dir = parent
	}
}

// Load reads boost.yaml from the project enclosing dir. Values can be
// overridden with BOOST_ environment variables, e.g. BOOST_GRPC_LISTEN.
func Load(dir string) (*Config, error) {
	root, err := FindRoot(dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filepath.Join(root, FileName))
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", FileName, err)
	}
	cfg.Root = root
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fill derives the values that default to other settings.
func (c *Config) fill() {
	if c.Deploy.Bucket == "" && c.Name != "" {
		c.Deploy.Bucket = "s3://" + c.Name + "-toolkit-bucket"
	}
	if c.Otel.Service == "" {
		c.Otel.Service = c.Name
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: name is required")
	}
	switch c.Provider {
	case ProviderLocal, ProviderGRPC:
	default:
		return fmt.Errorf("config: unknown provider %q (want %s or %s)", c.Provider, ProviderLocal, ProviderGRPC)
	}
	switch c.GraphQL.Acknowledgement {
	case AcknowledgementBoolean, AcknowledgementObject:
	default:
		return fmt.Errorf("config: unknown graphql.acknowledgement %q (want %s or %s)",
			c.GraphQL.Acknowledgement, AcknowledgementBoolean, AcknowledgementObject)
	}
	if c.Provider == ProviderGRPC && len(c.GRPC.Endpoints) == 0 {
		return fmt.Errorf("config: provider %s needs grpc.endpoints", ProviderGRPC)
	}
	return nil
}

// Marshal renders cfg as boost.yaml content.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Write stores cfg as dir/boost.yaml.
func Write(dir string, cfg *Config) error {
	b, err := Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", FileName, err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), b, 0o644)
}
