package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/require"
)

func TestContextLogger(t *testing.T) {
	require.Equal(t, logr.Discard(), FromContext(context.Background()))

	l := testr.New(t)
	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("stored logger is returned", "k", "v")
	require.Equal(t, l, FromContext(ctx))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "boost", 1)
	l.Info("deploying", "app", "cart")
	l.V(1).Info("verbose line")
	l.V(2).Info("hidden line")

	out := buf.String()
	require.Contains(t, out, "boost")
	require.Contains(t, out, `"msg"="deploying"`)
	require.Contains(t, out, `"app"="cart"`)
	require.Contains(t, out, "verbose line")
	require.NotContains(t, out, "hidden line")
}
