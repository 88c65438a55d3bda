package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chainguard-dev/clog"

	"github.com/bgee/sympy-bot/internal/config"
)

// ErrNotChangeSet is returned by a HostingService when an identifier
// refers to something that is not a pull request (e.g. an issue).
// The orchestrator skips such identifiers entirely.
var ErrNotChangeSet = errors.New("not a pull request")

// HostingService is the hosting-side collaborator: pull request
// metadata lookups and comment posting.
type HostingService interface {
	// ListOpenChangeSets returns the open PR numbers split into
	// non-mergeable and mergeable sets.
	ListOpenChangeSets(ctx context.Context) (nonMergeable, mergeable []int, err error)
	GetChangeSet(ctx context.Context, number int) (*ChangeSet, error)
	UserRepos(ctx context.Context, user string) ([]RepoRef, error)
	PostComment(ctx context.Context, number int, body string) error
}

// SourceControl is the git-side collaborator operating on the shared
// local clone.
type SourceControl interface {
	Clone(ctx context.Context, url, dir string) error
	// FetchBranch returns an error when the branch cannot be fetched;
	// that is a per-PR outcome, not a fatal condition.
	FetchBranch(ctx context.Context, dir, url, branch string, number int) error
	Hashes(ctx context.Context, dir, mergeTarget string, number int) (target, branch string, err error)
	Merge(ctx context.Context, dir, mergeTarget string, number int) (conflicts bool, log string, err error)
}

// TestRunner executes the test command and the docs build in the
// working copy. A returned error is an infrastructure failure,
// distinct from passed=false (a legitimate test failure).
type TestRunner interface {
	Run(ctx context.Context, dir, command string, convertSource bool) (passed bool, log string, err error)
	BuildDocs(ctx context.Context, dir string) (passed bool, log string, err error)
}

// Uploader persists a log/result tuple on the reviews server and
// returns its reference URL.
type Uploader interface {
	Upload(ctx context.Context, data UploadData) (url string, err error)
}

// Probe reports interpreter and doc-tool identity.
type Probe interface {
	MajorVersion(ctx context.Context, interpreter string) (int, error)
	Platform(ctx context.Context, interpreter string) (Platform, error)
	// DocToolVersion returns an error when the doc tool is not
	// available; the docs build is then skipped with a warning.
	DocToolVersion(ctx context.Context) (string, error)
}

// Orchestrator drives the full review of one or more pull requests:
// fetch, merge, per-interpreter test runs, optional docs build, report
// formulation, and comment posting. Processing is strictly sequential
// and the first fatal error aborts the whole run.
type Orchestrator struct {
	Host   HostingService
	Source SourceControl
	Runner TestRunner
	Upload Uploader
	Probe  Probe
	Config config.Run
	// Out receives each rendered report for local display.
	Out io.Writer
}

// ResolveIDs expands the command-line arguments into PR numbers.
// "all" expands to the non-mergeable then the mergeable open PRs, in
// that order, without deduplication; "mergeable" expands to only the
// mergeable ones.
func (o *Orchestrator) ResolveIDs(ctx context.Context, args []string) ([]int, error) {
	var ids []int
	for _, arg := range args {
		switch arg {
		case "all":
			nonMergeable, mergeable, err := o.Host.ListOpenChangeSets(ctx)
			if err != nil {
				return nil, fmt.Errorf("list open pull requests: %w", err)
			}
			ids = append(ids, nonMergeable...)
			ids = append(ids, mergeable...)
		case "mergeable":
			_, mergeable, err := o.Host.ListOpenChangeSets(ctx)
			if err != nil {
				return nil, fmt.Errorf("list open pull requests: %w", err)
			}
			ids = append(ids, mergeable...)
		default:
			n, err := strconv.Atoi(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pull request number %q", arg)
			}
			ids = append(ids, n)
		}
	}
	return ids, nil
}

// Run reviews every pull request named by args. The target repo is
// cloned once and reused across all PRs and interpreters.
func (o *Orchestrator) Run(ctx context.Context, args []string) error {
	log := clog.FromContext(ctx)

	ids, err := o.ResolveIDs(ctx, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		log.Info("no pull requests to review")
		return nil
	}

	dir := filepath.Join(o.Config.WorkDir, config.RepoName(o.Config.Repo))
	log.Infof("cloning %s into %s", o.Config.CloneURL, dir)
	if err := o.Source.Clone(ctx, o.Config.CloneURL, dir); err != nil {
		return err
	}

	multiple := len(ids) > 1
	for _, n := range ids {
		if err := o.reviewOne(ctx, n, dir, multiple); err != nil {
			return err
		}
	}
	return nil
}

// reviewOne produces exactly one ReviewResult for PR n and, unless
// both uploading and commenting are disabled, posts the rendered
// report. Fetch failures and merge conflicts become recorded
// outcomes; anything that indicates a broken environment is returned
// as an error and aborts the whole run.
func (o *Orchestrator) reviewOne(ctx context.Context, n int, dir string, multiple bool) error {
	log := clog.FromContext(ctx).With("pr", n)

	cs, err := o.Host.GetChangeSet(ctx, n)
	if errors.Is(err, ErrNotChangeSet) {
		log.Warnf("#%d is not a pull request, skipping", n)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get pull request #%d: %w", n, err)
	}

	mergeTarget := o.Config.Reference
	if mergeTarget == "" {
		mergeTarget = cs.BaseRef
	}

	headURL, err := o.resolveHeadURL(ctx, cs)
	if err != nil {
		return err
	}

	logDir, err := o.logDir(n, multiple)
	if err != nil {
		return err
	}

	result := ReviewResult{}
	var hashes Hashes
	platforms := map[string]Platform{}
	docTool := ""

	log.Infof("fetching %s from %s", cs.Branch, headURL)
	if fetchErr := o.Source.FetchBranch(ctx, dir, headURL, cs.Branch, n); fetchErr != nil {
		log.Warnf("fetch failed: %v", fetchErr)
		result[KeyFetch] = StepOutcome{Status: StatusFetchFailed, Log: fetchErr.Error()}
	} else {
		targetHash, branchHash, err := o.Source.Hashes(ctx, dir, mergeTarget, n)
		if err != nil {
			return fmt.Errorf("resolve commit hashes: %w", err)
		}
		hashes = Hashes{Target: targetHash, Branch: branchHash}

		log.Infof("merging into %s", mergeTarget)
		conflicts, mergeLog, err := o.Source.Merge(ctx, dir, mergeTarget, n)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		if conflicts {
			log.Warn("merge conflicts; testing skipped")
			o.writeLog(ctx, logDir, "merge-conflicts", mergeLog)
			url := o.upload(ctx, UploadData{
				Number:      n,
				Result:      StatusConflicts.String(),
				Interpreter: KeyConflicts,
				Log:         mergeLog,
			})
			result[KeyConflicts] = StepOutcome{Status: StatusConflicts, Log: mergeLog, ReportURL: url}
		} else {
			if err := o.runTests(ctx, n, dir, logDir, result, platforms); err != nil {
				return err
			}
			if o.Config.BuildDocs {
				docTool, err = o.buildDocs(ctx, n, dir, logDir, result)
				if err != nil {
					return err
				}
			}
		}
	}

	if len(result) == 0 {
		// Nothing ran and nothing failed: no interpreters configured
		// and no docs built. There is nothing to report.
		log.Info("nothing to do")
		return nil
	}

	report, err := FormatReport(ReportData{
		Result:         result,
		Interpreters:   o.Config.Interpreters,
		User:           cs.User,
		Branch:         cs.Branch,
		Hashes:         hashes,
		MergeTarget:    o.Config.Reference,
		TestCommand:    o.Config.TestCommand,
		DefaultCommand: config.DefaultTestCommand,
		Platforms:      platforms,
		DocTool:        docTool,
	})
	if err != nil {
		return err
	}

	if o.Out != nil {
		fmt.Fprintln(o.Out, report)
	}

	if o.Config.Upload || o.Config.Comment {
		if err := o.Host.PostComment(ctx, n, report); err != nil {
			return fmt.Errorf("post comment on #%d: %w", n, err)
		}
		log.Info("posted review comment")
	}
	return nil
}

// runTests executes the configured test command under every
// interpreter, in order. The source-compatibility conversion runs
// once, before the first version-3-class interpreter, and never
// again. An error-class outcome from the runner aborts the run.
func (o *Orchestrator) runTests(ctx context.Context, n int, dir, logDir string, result ReviewResult, platforms map[string]Platform) error {
	log := clog.FromContext(ctx).With("pr", n)

	converted := false
	for i, interp := range o.Config.Interpreters {
		major, err := o.Probe.MajorVersion(ctx, interp)
		if err != nil {
			return fmt.Errorf("probe %s: %w", interp, err)
		}
		convert := major >= 3 && !converted

		command := interp + " " + o.Config.TestCommand
		log.Infof("running %q", command)
		passed, testLog, err := o.Runner.Run(ctx, dir, command, convert)
		if err != nil {
			return fmt.Errorf("run %q: %w", command, err)
		}
		if major >= 3 {
			converted = true
		}

		status := StatusFailed
		if passed {
			status = StatusPassed
		}
		log.Infof("%s: %s", interp, status)

		o.writeLog(ctx, logDir, fmt.Sprintf("interpreter-%d", i), testLog)
		url := o.upload(ctx, UploadData{
			Number:      n,
			Result:      status.String(),
			Interpreter: interp,
			Log:         testLog,
			Command:     command,
		})
		result[interp] = StepOutcome{Status: status, Log: testLog, ReportURL: url}

		plat, err := o.Probe.Platform(ctx, interp)
		if err != nil {
			return fmt.Errorf("probe platform for %s: %w", interp, err)
		}
		platforms[interp] = plat
	}
	return nil
}

// buildDocs runs the documentation build if the doc tool is
// available. A missing doc tool is a warning, not a failure; a broken
// build environment is fatal.
func (o *Orchestrator) buildDocs(ctx context.Context, n int, dir, logDir string, result ReviewResult) (string, error) {
	log := clog.FromContext(ctx).With("pr", n)

	version, err := o.Probe.DocToolVersion(ctx)
	if err != nil {
		log.Warnf("doc tool unavailable, skipping docs build: %v", err)
		return "", nil
	}

	log.Info("building docs")
	passed, buildLog, err := o.Runner.BuildDocs(ctx, dir)
	if err != nil {
		return "", fmt.Errorf("build docs: %w", err)
	}

	status := StatusFailed
	if passed {
		status = StatusPassed
	}
	o.writeLog(ctx, logDir, "docs", buildLog)
	url := o.upload(ctx, UploadData{
		Number:      n,
		Result:      status.String(),
		Interpreter: KeyDocs,
		Log:         buildLog,
	})
	result[KeyDocs] = StepOutcome{Status: status, Log: buildLog, ReportURL: url}
	return version, nil
}

// resolveHeadURL returns the clone URL for the PR's head repository.
// When the hosting service reports no head repo, the author's
// repositories are searched for one with the target repo's name.
func (o *Orchestrator) resolveHeadURL(ctx context.Context, cs *ChangeSet) (string, error) {
	if cs.HeadRepoURL != "" {
		return cs.HeadRepoURL, nil
	}

	repos, err := o.Host.UserRepos(ctx, cs.User)
	if err != nil {
		return "", fmt.Errorf("list repos for %s: %w", cs.User, err)
	}
	name := config.RepoName(o.Config.Repo)
	for _, r := range repos {
		if r.Name == name {
			return r.CloneURL, nil
		}
	}
	return "", fmt.Errorf("no head repository for #%d and %s owns no repo named %q", cs.Number, cs.User, name)
}

// logDir returns the directory step logs for PR n are written to,
// creating it if needed. With multiple PRs in one invocation each PR
// gets its own subdirectory.
func (o *Orchestrator) logDir(n int, multiple bool) (string, error) {
	dir := filepath.Join(o.Config.WorkDir, "logs")
	if multiple {
		dir = filepath.Join(dir, strconv.Itoa(n))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	return dir, nil
}

// writeLog stores one step's log under logDir. Log files are for
// local inspection; failure to write one is only worth a warning.
func (o *Orchestrator) writeLog(ctx context.Context, logDir, name, text string) {
	path := filepath.Join(logDir, name+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		clog.FromContext(ctx).Warnf("write %s: %v", path, err)
	}
}

// upload sends a log to the reviews server when uploading is enabled.
// Returns the report URL, or empty when uploading is disabled or the
// upload failed (the report then shows a not-uploaded placeholder).
func (o *Orchestrator) upload(ctx context.Context, data UploadData) string {
	if !o.Config.Upload {
		return ""
	}
	url, err := o.Upload.Upload(ctx, data)
	if err != nil {
		clog.FromContext(ctx).Warnf("upload %s log: %v", data.Interpreter, err)
		return ""
	}
	return url
}
