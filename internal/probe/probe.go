// Package probe reports interpreter and documentation-tool identity
// by asking the installed tools directly.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bgee/sympy-bot/internal/review"
)

// platformScript prints one detail per line so the output survives
// any interpreter's print semantics (statement in 2.x, function in
// 3.x works via the trailing parens form below).
const platformScript = "import platform, os, sys\n" +
	"sys.stdout.write(platform.python_implementation() + '\\n')\n" +
	"sys.stdout.write(platform.python_version() + '\\n')\n" +
	"sys.stdout.write(platform.architecture()[0] + '\\n')\n" +
	"sys.stdout.write(os.environ.get('SYMPY_USE_CACHE', 'yes') + '\\n')\n"

// Probe shells out to the interpreters and the doc tool.
type Probe struct{}

// MajorVersion returns the interpreter's major version number.
func (Probe) MajorVersion(ctx context.Context, interpreter string) (int, error) {
	out, err := output(ctx, interpreter, "-c", "import sys; sys.stdout.write(str(sys.version_info[0]))")
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", interpreter, err)
	}
	return ParseMajorVersion(out)
}

// Platform reports the interpreter's implementation, version,
// architecture, and whether the cache is enabled.
func (Probe) Platform(ctx context.Context, interpreter string) (review.Platform, error) {
	out, err := output(ctx, interpreter, "-c", platformScript)
	if err != nil {
		return review.Platform{}, fmt.Errorf("probe %s: %w", interpreter, err)
	}
	return ParsePlatform(out)
}

// DocToolVersion returns the sphinx-build version line. An error
// means the doc tool is not available; callers skip the docs build.
func (Probe) DocToolVersion(ctx context.Context) (string, error) {
	out, err := output(ctx, "sphinx-build", "--version")
	if err != nil {
		return "", fmt.Errorf("sphinx-build: %w", err)
	}
	version := strings.TrimSpace(out)
	if version == "" {
		return "", fmt.Errorf("sphinx-build reported no version")
	}
	// Only the first line matters; some versions print extra notices.
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = strings.TrimSpace(version[:i])
	}
	return version, nil
}

// ParseMajorVersion parses the version_info[0] probe output.
func ParseMajorVersion(out string) (int, error) {
	major, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("unexpected version probe output %q", out)
	}
	return major, nil
}

// ParsePlatform parses the four-line platform probe output.
func ParsePlatform(out string) (review.Platform, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 4 {
		return review.Platform{}, fmt.Errorf("unexpected platform probe output %q", out)
	}
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return review.Platform{
		PythonType:     lines[0],
		Version:        lines[1],
		AdditionalInfo: lines[2],
		UseCache:       lines[3] != "no",
	}, nil
}

func output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(buf.String()))
	}
	return buf.String(), nil
}
