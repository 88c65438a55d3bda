package review

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGlyph(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPassed, ":white_check_mark:"},
		{StatusFailed, ":red_circle:"},
		{StatusFetchFailed, ":x:"},
		{StatusConflicts, ":exclamation:"},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			if got := glyph(tt.status); got != tt.want {
				t.Errorf("glyph(%v) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestFormatReport_EmptyResultIsError(t *testing.T) {
	_, err := FormatReport(ReportData{Result: ReviewResult{}})
	if err == nil {
		t.Fatal("expected error for empty review result")
	}
}

func TestFormatReport_HeadlinePriority(t *testing.T) {
	hashes := Hashes{Target: "aaaa111", Branch: "bbbb222"}
	tests := []struct {
		name         string
		result       ReviewResult
		wantHeadline string
		wantAbsent   []string
	}{
		{
			name: "conflicts beat everything",
			result: ReviewResult{
				KeyConflicts: {Status: StatusConflicts},
				"python":     {Status: StatusPassed},
				"python3":    {Status: StatusFailed},
			},
			wantHeadline: ":exclamation: There were merge conflicts",
			// Conflicts suppress per-interpreter lines entirely.
			wantAbsent: []string{":red_circle:", ":white_check_mark:"},
		},
		{
			name: "fetch failure",
			result: ReviewResult{
				KeyFetch: {Status: StatusFetchFailed},
			},
			wantHeadline: ":x: Could not fetch the branch",
		},
		{
			name: "any failure wins over passes",
			result: ReviewResult{
				"python":  {Status: StatusPassed},
				"python3": {Status: StatusFailed},
				"pypy":    {Status: StatusPassed},
			},
			wantHeadline: ":red_circle: There were test failures",
		},
		{
			name: "all passed",
			result: ReviewResult{
				"python":  {Status: StatusPassed},
				"python3": {Status: StatusPassed},
			},
			wantHeadline: ":white_check_mark: All tests have passed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatReport(ReportData{
				Result:       tt.result,
				Interpreters: []string{"python", "python3", "pypy"},
				Branch:       "fix-integrals",
				Hashes:       hashes,
			})
			if err != nil {
				t.Fatalf("FormatReport: %v", err)
			}
			firstLine := strings.SplitN(got, "\n", 2)[0]
			if !strings.Contains(firstLine, tt.wantHeadline) {
				t.Errorf("headline %q does not contain %q", firstLine, tt.wantHeadline)
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("report should not contain %q:\n%s", absent, got)
				}
			}
		})
	}
}

func TestFormatReport_InterpreterOrderFollowsConfig(t *testing.T) {
	// Result map insertion order must not matter; lines follow the
	// configured interpreter list.
	result := ReviewResult{
		"pypy":    {Status: StatusPassed, ReportURL: "https://r/3"},
		"python3": {Status: StatusFailed, ReportURL: "https://r/2"},
		"python":  {Status: StatusPassed, ReportURL: "https://r/1"},
	}
	got, err := FormatReport(ReportData{
		Result:       result,
		Interpreters: []string{"python", "python3", "pypy"},
		Branch:       "branch",
		Hashes:       Hashes{Target: "t", Branch: "b"},
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}

	iPython := strings.Index(got, "**python**")
	iPython3 := strings.Index(got, "**python3**")
	iPypy := strings.Index(got, "**pypy**")
	if iPython < 0 || iPython3 < 0 || iPypy < 0 {
		t.Fatalf("missing interpreter lines:\n%s", got)
	}
	if !(iPython < iPython3 && iPython3 < iPypy) {
		t.Errorf("interpreter lines out of order (python=%d python3=%d pypy=%d):\n%s",
			iPython, iPython3, iPypy, got)
	}
}

func TestFormatReport_Deterministic(t *testing.T) {
	d := ReportData{
		Result: ReviewResult{
			"python":  {Status: StatusPassed, ReportURL: "https://r/1"},
			"python3": {Status: StatusFailed, ReportURL: "https://r/2"},
			KeyDocs:   {Status: StatusPassed, ReportURL: "https://r/3"},
		},
		Interpreters: []string{"python", "python3"},
		User:         "someuser",
		Branch:       "series-fix",
		Hashes:       Hashes{Target: "1234abc", Branch: "5678def"},
		TestCommand:  "setup.py test",
		DocTool:      "Sphinx v1.1.3",
	}

	first, err := FormatReport(d)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := FormatReport(d)
		if err != nil {
			t.Fatalf("FormatReport: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("output not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestFormatReport_PassedScenarioEmbedsHashes(t *testing.T) {
	got, err := FormatReport(ReportData{
		Result:       ReviewResult{"python": {Status: StatusPassed}},
		Interpreters: []string{"python"},
		Branch:       "branch",
		Hashes:       Hashes{Target: "abc1234", Branch: "def5678"},
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(got, ":white_check_mark: All tests have passed") {
		t.Errorf("missing all-passed headline:\n%s", got)
	}
	for _, hash := range []string{"abc1234", "def5678"} {
		if !strings.Contains(got, hash) {
			t.Errorf("report missing hash %q:\n%s", hash, got)
		}
	}
}

func TestFormatReport_FetchFailureNamesBranchOnce(t *testing.T) {
	got, err := FormatReport(ReportData{
		Result:       ReviewResult{KeyFetch: {Status: StatusFetchFailed}},
		Interpreters: []string{"python"},
		Branch:       "orphaned-branch",
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if n := strings.Count(got, "orphaned-branch"); n != 1 {
		t.Errorf("branch name appears %d times, want exactly 1:\n%s", n, got)
	}
}

func TestFormatReport_MentionAndBranchDisplay(t *testing.T) {
	got, err := FormatReport(ReportData{
		Result:       ReviewResult{"python": {Status: StatusPassed}},
		Interpreters: []string{"python"},
		User:         "somebody",
		Branch:       "fix-core",
		Hashes:       Hashes{Target: "t", Branch: "b"},
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.HasPrefix(got, "@somebody: ") {
		t.Errorf("report should start with the @mention prefix:\n%s", got)
	}
	if !strings.Contains(got, "`somebody/fix-core`") {
		t.Errorf("branch display should carry the user login:\n%s", got)
	}

	// Without a user there is no mention and the bare branch is shown.
	got, err = FormatReport(ReportData{
		Result:       ReviewResult{"python": {Status: StatusPassed}},
		Interpreters: []string{"python"},
		Branch:       "fix-core",
		Hashes:       Hashes{Target: "t", Branch: "b"},
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if strings.Contains(got, "@") {
		t.Errorf("report should have no mention without a user:\n%s", got)
	}
	if !strings.Contains(got, "`fix-core`") {
		t.Errorf("report should show the bare branch:\n%s", got)
	}
}

func TestFormatReport_MergeTargetDisplay(t *testing.T) {
	base := ReportData{
		Result:       ReviewResult{"python": {Status: StatusPassed}},
		Interpreters: []string{"python"},
		Branch:       "branch",
		Hashes:       Hashes{Target: "t", Branch: "b"},
	}

	got, err := FormatReport(base)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(got, "**master**") {
		t.Errorf("default merge target should render as bold master:\n%s", got)
	}

	base.MergeTarget = "0123456789abcdef0123456789abcdef01234567"
	got, err = FormatReport(base)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(got, "**0123456**") {
		t.Errorf("explicit merge target should render as the bold short commit:\n%s", got)
	}
	if strings.Contains(got, "**master**") {
		t.Errorf("explicit merge target should suppress master:\n%s", got)
	}
}

func TestFormatReport_LinksAndPlaceholders(t *testing.T) {
	got, err := FormatReport(ReportData{
		Result: ReviewResult{
			"python":  {Status: StatusPassed, ReportURL: "https://reviews.example/42"},
			"python3": {Status: StatusFailed},
		},
		Interpreters: []string{"python", "python3"},
		Branch:       "branch",
		Hashes:       Hashes{Target: "t", Branch: "b"},
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(got, "[All tests have passed](https://reviews.example/42)") {
		t.Errorf("uploaded step should be linked:\n%s", got)
	}
	if !strings.Contains(got, "Test failures (log not uploaded)") {
		t.Errorf("non-uploaded step should carry the placeholder:\n%s", got)
	}
}

func TestFormatReport_ExtraDetailLines(t *testing.T) {
	d := ReportData{
		Result:         ReviewResult{"python": {Status: StatusPassed}},
		Interpreters:   []string{"python"},
		Branch:         "branch",
		Hashes:         Hashes{Target: "t", Branch: "b"},
		TestCommand:    "setup.py test --slow",
		DefaultCommand: "setup.py test",
		Platforms: map[string]Platform{
			"python": {PythonType: "CPython", Version: "2.7.3", UseCache: false},
		},
	}
	got, err := FormatReport(d)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(got, "ran with `python setup.py test --slow`") {
		t.Errorf("non-default command should be called out:\n%s", got)
	}
	if !strings.Contains(got, "cache: off") {
		t.Errorf("disabled cache should be called out:\n%s", got)
	}
	if !strings.Contains(got, "**CPython 2.7.3**") {
		t.Errorf("platform identity should replace the interpreter name:\n%s", got)
	}

	// With the default command and cache on, no detail lines appear.
	d.TestCommand = "setup.py test"
	d.Platforms["python"] = Platform{PythonType: "CPython", Version: "2.7.3", UseCache: true}
	got, err = FormatReport(d)
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if strings.Contains(got, "ran with") || strings.Contains(got, "cache:") {
		t.Errorf("default command and cache should emit no detail lines:\n%s", got)
	}
}

func TestFormatReport_DocsLine(t *testing.T) {
	got, err := FormatReport(ReportData{
		Result: ReviewResult{
			"python": {Status: StatusPassed},
			KeyDocs:  {Status: StatusPassed, ReportURL: "https://r/docs"},
		},
		Interpreters: []string{"python"},
		Branch:       "branch",
		Hashes:       Hashes{Target: "t", Branch: "b"},
		DocTool:      "Sphinx v1.1.3",
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(got, "**Sphinx v1.1.3**: [Docs build passed](https://r/docs)") {
		t.Errorf("missing docs line:\n%s", got)
	}
}

func TestFormatReport_Footer(t *testing.T) {
	got, err := FormatReport(ReportData{
		Result:       ReviewResult{"python": {Status: StatusPassed}},
		Interpreters: []string{"python"},
		Branch:       "branch",
		Hashes:       Hashes{Target: "t", Branch: "b"},
	})
	if err != nil {
		t.Fatalf("FormatReport: %v", err)
	}
	if !strings.Contains(got, "*Automatic review by [sympy-bot]("+HomePage+").*") {
		t.Errorf("missing footer:\n%s", got)
	}
}
