package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func TestLoadFromNestedDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, `
name: shop
module: example.com/shop
provider: grpc
graphql:
  acknowledgement: object
grpc:
  endpoints:
    - localhost:50051
    - localhost:50052
  rpcTimeout: 10s
`)
	nested := filepath.Join(root, "commands", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Load(nested)
	require.NoError(t, err)

	want := &Config{
		Name:     "shop",
		Module:   "example.com/shop",
		Version:  "0.1.0",
		Provider: ProviderGRPC,
		GraphQL:  GraphQLConfig{Acknowledgement: AcknowledgementObject},
		GRPC: GRPCConfig{
			Endpoints:           []string{"localhost:50051", "localhost:50052"},
			Listen:              ":50051",
			RPCTimeout:          10 * time.Second,
			MaxConnsPerEndpoint: 2,
		},
		Deploy: DeployConfig{Bucket: "s3://shop-toolkit-bucket"},
		Otel:   OtelConfig{Service: "shop"},
		Root:   root,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "name: shop\n")
	t.Setenv("BOOST_GRPC_LISTEN", "127.0.0.1:9000")
	t.Setenv("BOOST_DEPLOY_BUCKET", "mem://")

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.GRPC.Listen)
	require.Equal(t, "mem://", cfg.Deploy.Bucket)
}

func TestLoadNotAProject(t *testing.T) {
	_, err := Load(t.TempDir())
	require.ErrorIs(t, err, ErrNotAProject)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing name", "provider: local\n", "name is required"},
		{"provider", "name: shop\nprovider: lambda\n", `unknown provider "lambda"`},
		{"acknowledgement", "name: shop\ngraphql:\n  acknowledgement: full\n", `unknown graphql.acknowledgement "full"`},
		{"grpc without endpoints", "name: shop\nprovider: grpc\n", "needs grpc.endpoints"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, tc.content)
			_, err := Load(root)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	root := t.TempDir()
	cfg := Default("shop")
	cfg.Author = "Jane"
	cfg.License = "MIT"
	require.NoError(t, Write(root, cfg))

	got, err := Load(root)
	require.NoError(t, err)
	cfg.Root = root
	if diff := cmp.Diff(cfg, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("shop")
	require.Equal(t, ProviderLocal, cfg.Provider)
	require.Equal(t, AcknowledgementBoolean, cfg.GraphQL.Acknowledgement)
	require.Equal(t, 3*time.Second, cfg.GRPC.RPCTimeout)
	require.Equal(t, "s3://shop-toolkit-bucket", cfg.Deploy.Bucket)
	require.NoError(t, cfg.Validate())
}
