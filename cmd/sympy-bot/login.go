package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bgee/sympy-bot/internal/config"
	"github.com/bgee/sympy-bot/internal/gh"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store a GitHub access token for posting review comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context())
		},
	}
}

// runLogin prompts for a token, verifies it against the API, and
// stores it in the config file. This is the only interactive entry
// point; the review flow itself never prompts.
func runLogin(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Print("GitHub access token (input hidden): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("empty token")
	}

	client := gh.NewClient(ctx, cfg.Repo, token)
	login, err := client.Authenticate(ctx)
	if err != nil {
		return err
	}

	cfg.Token = token
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Authenticated as %s; token stored in %s\n", login, config.Path())
	return nil
}
