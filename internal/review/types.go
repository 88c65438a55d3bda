package review

// Reserved step keys in a ReviewResult. Any other key is an
// interpreter name.
const (
	KeyFetch     = "fetch"
	KeyConflicts = "conflicts"
	KeyDocs      = "build_docs"
)

// Status classifies the outcome of a single review step.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusFetchFailed
	StatusConflicts
)

// String returns the human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "Passed"
	case StatusFailed:
		return "Failed"
	case StatusFetchFailed:
		return "fetch failed"
	case StatusConflicts:
		return "conflicts"
	}
	panic("review: unknown status")
}

// ChangeSet is the metadata for one pull request, immutable once
// fetched from the hosting service.
type ChangeSet struct {
	Number int
	Branch string
	User   string
	// BaseRef is the declared merge base (usually the default branch).
	BaseRef string
	// HeadRepoURL is the clone URL of the head repository. Empty when
	// GitHub reports no head repo (e.g. PRs opened from the target
	// repo's own default branch); the orchestrator then falls back to
	// searching the author's repositories.
	HeadRepoURL string
}

// StepOutcome records the result of one unit of work: the fetch, the
// merge, a single interpreter run, or the docs build.
type StepOutcome struct {
	Status Status
	Log    string
	// ReportURL is the uploaded log location, or empty when the log
	// was not uploaded.
	ReportURL string
}

// ReviewResult maps step keys to outcomes for one pull request.
// A result never contains both KeyFetch and an interpreter key:
// a fetch failure short-circuits all testing.
type ReviewResult map[string]StepOutcome

// Hashes identifies the exact commits that were merged.
type Hashes struct {
	Target string
	Branch string
}

// Platform describes one interpreter as reported by the environment
// probe.
type Platform struct {
	PythonType     string // "CPython", "PyPy", ...
	Version        string
	AdditionalInfo string // e.g. architecture
	UseCache       bool
}

// RepoRef is a repository owned by a user, used to resolve the head
// repo URL when the pull request metadata omits it.
type RepoRef struct {
	Name     string
	CloneURL string
}

// UploadData is the log/result tuple persisted on the reviews server.
type UploadData struct {
	Number      int
	Result      string
	Interpreter string
	Log         string
	Command     string
}
