package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:   "sympy-bot",
		Short: "Automatic testing and review of SymPy pull requests",
		Long: "sympy-bot fetches pull requests, merges them against the target\n" +
			"branch, runs the test suite under one or more Python interpreters,\n" +
			"optionally builds the docs, uploads the logs to the reviews server,\n" +
			"and posts a summary comment back on the pull request.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			log := clog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: level}))
			cmd.SetContext(clog.WithLogger(cmd.Context(), log))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
