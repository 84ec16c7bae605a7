package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/simonhull/firebird-suite/heron/internal/commands"
	"github.com/simonhull/firebird-suite/heron/pkg/output"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.AnalyzeCmd())
	rootCmd.AddCommand(commands.InitCmd())
	rootCmd.AddCommand(commands.QueryCmds()...)

	// Ctrl-C cancels a running analysis; the engine is killed and the
	// partial outcome is still reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		output.Error(err.Error())
		stop()
		os.Exit(1)
	}
}
