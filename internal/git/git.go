// Package git shells out to the git CLI for the clone/fetch/merge
// operations the review orchestrator drives.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ShortSHA truncates a full commit hash to 7 characters for display.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// BranchRef returns the local ref name the pull request branch is
// fetched into.
func BranchRef(number int) string {
	return fmt.Sprintf("pr-%d", number)
}

// reviewRef returns the throwaway branch name the merge is performed
// on, so the clone's own branches stay untouched between reviews.
func reviewRef(number int) string {
	return fmt.Sprintf("review-pr-%d", number)
}

// run executes a git command in dir and returns its combined output.
// The returned error includes the output, which for git carries the
// actual diagnostic.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	out := buf.String()
	if err != nil {
		return out, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(out))
	}
	return out, nil
}

// Gateway performs source-control operations on a single local
// working copy. The clone is reused across all pull requests in one
// invocation; callers must not mutate it concurrently.
type Gateway struct{}

// Clone clones url into dir.
func (Gateway) Clone(ctx context.Context, url, dir string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", url, dir)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone %s: %w: %s", url, err, strings.TrimSpace(buf.String()))
	}
	return nil
}

// FetchBranch fetches branch from url into the local pr-<n> ref. A
// non-nil error means the branch could not be fetched (commonly: it
// was deleted remotely); the caller records this as a fetch-failure
// outcome rather than aborting the run.
func (Gateway) FetchBranch(ctx context.Context, dir, url, branch string, number int) error {
	// Force-update the local ref in case the same PR is reviewed twice
	// in one invocation.
	_, err := run(ctx, dir, "fetch", url, "+"+branch+":"+BranchRef(number))
	return err
}

// Hashes resolves the merge target and the fetched branch tip to full
// commit hashes. Failure here means the environment is broken (the
// target ref does not resolve) and is fatal to the run.
func (Gateway) Hashes(ctx context.Context, dir, mergeTarget string, number int) (target, branch string, err error) {
	out, err := run(ctx, dir, "rev-parse", mergeTarget)
	if err != nil {
		return "", "", err
	}
	target = strings.TrimSpace(out)

	out, err = run(ctx, dir, "rev-parse", BranchRef(number))
	if err != nil {
		return "", "", err
	}
	return target, strings.TrimSpace(out), nil
}

// Merge checks out a throwaway branch at mergeTarget and merges the
// fetched PR ref into it. Returns conflicts=true with the merge log
// when the merge reports conflicts; the working tree is reset so the
// clone stays usable for the next pull request. Any other failure is
// an error.
func (Gateway) Merge(ctx context.Context, dir, mergeTarget string, number int) (conflicts bool, log string, err error) {
	if _, err := run(ctx, dir, "checkout", "-B", reviewRef(number), mergeTarget); err != nil {
		return false, "", err
	}

	out, err := run(ctx, dir, "merge", "--no-ff", "--no-edit", BranchRef(number))
	if err == nil {
		return false, out, nil
	}
	if !IsConflict(out) {
		return false, out, err
	}
	// Abort so the working tree is clean for subsequent reviews. Best
	// effort: the conflict itself is what gets reported.
	_, _ = run(ctx, dir, "merge", "--abort")
	return true, out, nil
}

// IsConflict reports whether merge output indicates conflicts rather
// than some other merge failure.
func IsConflict(out string) bool {
	return strings.Contains(out, "CONFLICT") ||
		strings.Contains(out, "Automatic merge failed")
}
