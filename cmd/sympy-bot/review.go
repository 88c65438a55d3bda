package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bgee/sympy-bot/internal/config"
	"github.com/bgee/sympy-bot/internal/gh"
	"github.com/bgee/sympy-bot/internal/git"
	"github.com/bgee/sympy-bot/internal/probe"
	"github.com/bgee/sympy-bot/internal/review"
	"github.com/bgee/sympy-bot/internal/runner"
	"github.com/bgee/sympy-bot/internal/upload"
)

type reviewOpts struct {
	repo         string
	interpreters string
	testCommand  string
	buildDocs    bool
	reference    string
	noUpload     bool
	noComment    bool
	server       string
	testing      bool
}

func reviewCmd() *cobra.Command {
	var opts reviewOpts

	cmd := &cobra.Command{
		Use:   "review <n>... | all | mergeable",
		Short: "Fetch, merge, and test pull requests, then post a review",
		Long: `Review one or more pull requests by number. "all" expands to every
open pull request (non-mergeable first), "mergeable" to only the
mergeable ones. Each review fetches the branch, merges it into the
target ref, runs the test command under every configured interpreter,
and posts a summary comment.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.repo, "repo", "r", "",
		"repository to review against (owner/name, overrides config)")
	cmd.Flags().StringVarP(&opts.interpreters, "interpreter", "i", "",
		"comma-separated interpreter list, tested in order (overrides config)")
	cmd.Flags().StringVarP(&opts.testCommand, "test-command", "t", "",
		"test command run under each interpreter (overrides config)")
	cmd.Flags().BoolVarP(&opts.buildDocs, "build-docs", "D", false,
		"also build the documentation")
	cmd.Flags().StringVar(&opts.reference, "reference", "",
		"merge into this commit instead of each PR's base ref")
	cmd.Flags().BoolVar(&opts.noUpload, "no-upload", false,
		"do not upload logs to the reviews server")
	cmd.Flags().BoolVar(&opts.noComment, "no-comment", false,
		"do not post the review comment")
	cmd.Flags().StringVar(&opts.server, "server", "",
		"reviews server base URL (overrides config)")
	cmd.Flags().BoolVar(&opts.testing, "testing", false,
		"dry run: implies --no-upload and --no-comment")

	return cmd
}

func runReview(ctx context.Context, opts reviewOpts, args []string) error {
	log := clog.FromContext(ctx)

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	repo := cfg.Repo
	if opts.repo != "" {
		repo = opts.repo
	}
	if err := config.ValidateRepo(repo); err != nil {
		return err
	}

	interpreters := cfg.Interpreters
	if opts.interpreters != "" {
		interpreters = splitTrimmed(opts.interpreters)
	}
	testCommand := cfg.TestCommand
	if opts.testCommand != "" {
		testCommand = opts.testCommand
	}
	server := cfg.Server
	if opts.server != "" {
		server = opts.server
	}

	workDir, err := os.MkdirTemp("", "sympy-bot-")
	if err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	// The working directory is kept after the run so logs and the
	// merged tree can be inspected.
	log.Infof("working directory: %s", workDir)

	run := config.Run{
		Repo:         repo,
		CloneURL:     "https://github.com/" + repo + ".git",
		Interpreters: interpreters,
		TestCommand:  testCommand,
		BuildDocs:    opts.buildDocs,
		Reference:    opts.reference,
		Upload:       !opts.noUpload && !opts.testing,
		Comment:      !opts.noComment && !opts.testing,
		Server:       server,
		WorkDir:      workDir,
	}

	orch := &review.Orchestrator{
		Host:   gh.NewClient(ctx, repo, cfg.Token),
		Source: git.Gateway{},
		Runner: runner.Runner{},
		Upload: upload.New(server),
		Probe:  probe.Probe{},
		Config: run,
		Out:    reportWriter(os.Stdout),
	}
	return orch.Run(ctx, args)
}

// markdownWriter renders each report through glamour before writing
// it to the terminal.
type markdownWriter struct {
	out io.Writer
}

func (w markdownWriter) Write(p []byte) (int, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		if rendered, err := r.Render(string(p)); err == nil {
			if _, err := io.WriteString(w.out, rendered); err != nil {
				return 0, err
			}
			return len(p), nil
		}
	}
	return w.out.Write(p)
}

// reportWriter returns a writer for local report display: rendered
// markdown on a terminal, raw markdown when piped.
func reportWriter(out *os.File) io.Writer {
	if isatty.IsTerminal(out.Fd()) {
		return markdownWriter{out: out}
	}
	return out
}
