// Package runner executes test and documentation-build commands in
// the working copy and classifies their outcomes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/chainguard-dev/clog"
)

// ConvertCommand is the one-time source-compatibility conversion run
// before the first Python-3 interpreter tests a tree written for
// Python 2.
const ConvertCommand = "bin/use2to3"

// DocsCommand builds the documentation inside the doc subdirectory.
const DocsCommand = "make html"

// DocsDir is the documentation subdirectory of the working copy.
const DocsDir = "doc"

// Runner runs commands through the shell, capturing combined output.
type Runner struct{}

// Run executes command in dir and reports whether it passed. A
// non-zero exit is a test failure (passed=false, nil error); failure
// to execute at all is an infrastructure error and aborts the whole
// review run. When convertSource is set, the source-compatibility
// conversion runs first; its failure is also an infrastructure error.
func (r Runner) Run(ctx context.Context, dir, command string, convertSource bool) (passed bool, log string, err error) {
	if convertSource {
		clog.FromContext(ctx).Infof("converting source with %q", ConvertCommand)
		out, err := shell(ctx, dir, ConvertCommand)
		if err != nil {
			return false, out, fmt.Errorf("convert source: %w", err)
		}
	}

	out, err := shell(ctx, dir, command)
	if err == nil {
		return true, out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return false, out, nil
	}
	return false, out, fmt.Errorf("run %q: %w", command, err)
}

// BuildDocs runs the docs build in the doc subdirectory. Outcome
// classification matches Run.
func (r Runner) BuildDocs(ctx context.Context, dir string) (passed bool, log string, err error) {
	out, err := shell(ctx, filepath.Join(dir, DocsDir), DocsCommand)
	if err == nil {
		return true, out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return false, out, nil
	}
	return false, out, fmt.Errorf("run %q: %w", DocsCommand, err)
}

// shell runs command through sh -c in dir, returning combined output.
func shell(ctx context.Context, dir, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}
