package main

import (
	"context"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/bgee/sympy-bot/internal/config"
	"github.com/bgee/sympy-bot/internal/gh"
)

func listCmd() *cobra.Command {
	var repoFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open pull requests and their mergeability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), repoFlag)
		},
	}
	cmd.Flags().StringVarP(&repoFlag, "repo", "r", "",
		"repository to list (owner/name, overrides config)")
	return cmd
}

func runList(ctx context.Context, repoFlag string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	repo := cfg.Repo
	if repoFlag != "" {
		repo = repoFlag
	}
	if err := config.ValidateRepo(repo); err != nil {
		return err
	}

	client := gh.NewClient(ctx, repo, cfg.Token)
	nonMergeable, mergeable, err := client.ListOpenChangeSets(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"PR", "Mergeable"})
	for _, n := range nonMergeable {
		table.Append([]string{"#" + strconv.Itoa(n), "no"})
	}
	for _, n := range mergeable {
		table.Append([]string{"#" + strconv.Itoa(n), "yes"})
	}
	return table.Render()
}
