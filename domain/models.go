package domain

// RepositoryEntry is one row of the repository list: the remote to update
// and the branch the update lands on. When Branch is empty the orchestrator
// resolves the repository's default branch through the provider API.
type RepositoryEntry struct {
	URL    string
	Branch string
}

// TemplateChoice identifies one of the closed set of CI-config variants,
// each bound to a concrete build container image.
type TemplateChoice string

const (
	ChoiceLegacy TemplateChoice = "legacy" // Java 8-12
	ChoiceMid    TemplateChoice = "mid"    // Java 13-16
	ChoiceModern TemplateChoice = "modern" // Java 17+
)

// Status is the terminal outcome for one repository.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// State is a stage of the per-repository pipeline. Every repository walks
// Pending -> Syncing -> Detecting -> Selecting -> Rewriting -> Publishing -> Done,
// with Failed reachable from any stage and Skipped from Detecting/Selecting.
type State string

const (
	StatePending    State = "PENDING"
	StateSyncing    State = "SYNCING"
	StateDetecting  State = "DETECTING"
	StateSelecting  State = "SELECTING"
	StateRewriting  State = "REWRITING"
	StatePublishing State = "PUBLISHING"
	StateDone       State = "DONE"
	StateSkipped    State = "SKIPPED"
	StateFailed     State = "FAILED"
)

// RunResult records the outcome for one repository. Exactly one is produced
// per RepositoryEntry, no matter where the pipeline stopped.
type RunResult struct {
	Repository  string         `json:"repository"`
	Branch      string         `json:"branch"`
	Status      Status         `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	JavaVersion int            `json:"java_version,omitempty"`
	Template    TemplateChoice `json:"template,omitempty"`
}

// Summary aggregates run results for the final report.
type Summary struct {
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Summarize counts results by status.
func Summarize(results []RunResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusUpdated:
			s.Updated++
		case StatusUnchanged:
			s.Unchanged++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
