package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgee/sympy-bot/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show sympy-bot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sympy-bot %s\n", version.Version)
		},
	}
}
