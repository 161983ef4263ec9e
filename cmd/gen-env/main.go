package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/seitarof/gen-env/internal/cli"
	"github.com/seitarof/gen-env/internal/diag"
	"github.com/seitarof/gen-env/internal/generator"
	"github.com/seitarof/gen-env/internal/parser"
	"github.com/seitarof/gen-env/internal/resolver"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "gen-env:", err)
		return 2
	}
	if cfg.ShowVersion {
		fmt.Println(version)
		return 0
	}

	logger := cli.NewLogger(os.Stderr, cfg.Verbose)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := parser.New(parser.WithLogger(logger))
	r := resolver.New(cfg.Wrappers, resolver.DefaultRules()...)
	f := generator.NewGoimportsFormatter()
	w := generator.NewFileWriter()
	g := generator.New(f, w)

	runner := cli.NewRunner(p, r, g, logger, os.Stdout)
	if err := runner.Run(ctx, cfg); err != nil {
		if list := diag.AsList(err); list != nil {
			for _, d := range list {
				fmt.Fprintln(os.Stderr, d.Error())
			}
			fmt.Fprintf(os.Stderr, "gen-env: %d annotation error(s)\n", len(list))
			return 1
		}
		fmt.Fprintln(os.Stderr, "gen-env:", err)
		return 1
	}
	return 0
}
