package review

import (
	"fmt"
	"strings"

	"github.com/bgee/sympy-bot/internal/git"
)

// ReportData is everything the formulator needs to render a review
// summary. It is read-only; FormatReport performs no I/O and consults
// no mutable state, so identical inputs always produce identical
// output.
type ReportData struct {
	Result ReviewResult
	// Interpreters is the originally configured interpreter list.
	// Per-interpreter lines are rendered in this order regardless of
	// the order outcomes were recorded.
	Interpreters []string
	User         string // PR author login; empty when unknown
	Branch       string
	Hashes       Hashes
	// MergeTarget is the explicit merge commit override, or empty when
	// merging into the target repo's default branch.
	MergeTarget string
	TestCommand string
	// DefaultCommand is the stock test command; an extra detail line is
	// emitted only when TestCommand differs from it.
	DefaultCommand string
	Platforms      map[string]Platform
	// DocTool is the documentation tool version line, set when the
	// result contains a docs build step.
	DocTool string
}

// HomePage is the tool's home page, linked from every report footer.
const HomePage = "https://github.com/bgee/sympy-bot"

// glyph maps a step status to its report marker. The mapping is
// exhaustive over the closed Status set; an out-of-range value is a
// programming error and panics via Status.String.
func glyph(s Status) string {
	switch s {
	case StatusPassed:
		return ":white_check_mark:"
	case StatusFailed:
		return ":red_circle:"
	case StatusFetchFailed:
		return ":x:"
	case StatusConflicts:
		return ":exclamation:"
	}
	panic("review: no glyph for status " + s.String())
}

// phrase returns the linked outcome phrase for a step line.
func phrase(s Status) string {
	switch s {
	case StatusPassed:
		return "All tests have passed"
	case StatusFailed:
		return "Test failures"
	case StatusFetchFailed:
		return "Fetch failed"
	case StatusConflicts:
		return "Merge conflicts"
	}
	panic("review: no phrase for status " + s.String())
}

// FormatReport renders a ReviewResult into the summary comment posted
// back on the pull request. The headline is chosen by priority:
// conflicts > fetch failure > any test failure > all passed. An empty
// result has no representable headline and is an error.
func FormatReport(d ReportData) (string, error) {
	if len(d.Result) == 0 {
		return "", fmt.Errorf("empty review result: nothing to report")
	}

	var b strings.Builder

	if d.User != "" {
		fmt.Fprintf(&b, "@%s: ", d.User)
	}

	branch := d.Branch
	if d.User != "" {
		branch = d.User + "/" + d.Branch
	}
	target := "**master**"
	if d.MergeTarget != "" {
		target = "**" + git.ShortSHA(d.MergeTarget) + "**"
	}

	// Conflicts suppress everything but the headline, the conflict log
	// link, and the footer.
	if out, ok := d.Result[KeyConflicts]; ok {
		fmt.Fprintf(&b,
			"%s There were merge conflicts; could not test the branch.\n\n",
			glyph(StatusConflicts))
		fmt.Fprintf(&b,
			"`%s` (%s) could not be merged into %s (%s). %s.\n",
			branch, git.ShortSHA(d.Hashes.Branch), target,
			git.ShortSHA(d.Hashes.Target), linked("Merge conflict log", out.ReportURL))
		b.WriteString(footer())
		return b.String(), nil
	}

	if _, ok := d.Result[KeyFetch]; ok {
		fmt.Fprintf(&b,
			"%s Could not fetch the branch `%s`; testing was skipped.\n",
			glyph(StatusFetchFailed), branch)
		b.WriteString(footer())
		return b.String(), nil
	}

	failed := false
	for _, out := range d.Result {
		if out.Status == StatusFailed {
			failed = true
			break
		}
	}
	if failed {
		fmt.Fprintf(&b,
			"%s There were test failures after merging `%s` (%s) into %s (%s).\n\n",
			glyph(StatusFailed), branch, git.ShortSHA(d.Hashes.Branch),
			target, git.ShortSHA(d.Hashes.Target))
	} else {
		fmt.Fprintf(&b,
			"%s All tests have passed after merging `%s` (%s) into %s (%s).\n\n",
			glyph(StatusPassed), branch, git.ShortSHA(d.Hashes.Branch),
			target, git.ShortSHA(d.Hashes.Target))
	}

	// Per-interpreter lines follow the configured order, not the
	// insertion order of the result map.
	for _, interp := range d.Interpreters {
		out, ok := d.Result[interp]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s **%s**: %s\n",
			glyph(out.Status), platformLabel(interp, d.Platforms),
			linked(phrase(out.Status), out.ReportURL))
		if d.TestCommand != "" && d.TestCommand != d.DefaultCommand {
			fmt.Fprintf(&b, "  * ran with `%s %s`\n", interp, d.TestCommand)
		}
		if p, ok := d.Platforms[interp]; ok && !p.UseCache {
			b.WriteString("  * cache: off\n")
		}
	}

	if out, ok := d.Result[KeyDocs]; ok {
		label := "Sphinx"
		if d.DocTool != "" {
			label = d.DocTool
		}
		docPhrase := "Docs build passed"
		if out.Status == StatusFailed {
			docPhrase = "Docs build failed"
		}
		fmt.Fprintf(&b, "%s **%s**: %s\n",
			glyph(out.Status), label, linked(docPhrase, out.ReportURL))
	}

	b.WriteString(footer())
	return b.String(), nil
}

// platformLabel renders the interpreter identity for a step line,
// preferring probed platform details over the bare interpreter name.
func platformLabel(interp string, platforms map[string]Platform) string {
	p, ok := platforms[interp]
	if !ok || p.Version == "" {
		return interp
	}
	label := p.PythonType + " " + p.Version
	if p.AdditionalInfo != "" {
		label += " (" + p.AdditionalInfo + ")"
	}
	return label
}

// linked renders text as a markdown link to the uploaded log, or with
// an explanatory placeholder when the log was not uploaded.
func linked(text, url string) string {
	if url == "" {
		return text + " (log not uploaded)"
	}
	return fmt.Sprintf("[%s](%s)", text, url)
}

func footer() string {
	return fmt.Sprintf("\n---\n*Automatic review by [sympy-bot](%s).*\n", HomePage)
}
