package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/hanpama/boost/internal/cli"
)

func main() {
	env, err := cli.DefaultEnv()
	if err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cli.Execute(ctx, env, os.Args[1:])
	stop()
	if err != nil {
		cli.PrintError(env.Err, err)
		os.Exit(1)
	}
}
