package model

import "time"

// RepositoryRecord is the outcome for one source repository
type RepositoryRecord struct {
	Source         SourceRef     `json:"source"`
	ForkState      ForkState     `json:"fork_state"`
	Fork           string        `json:"fork,omitempty"`
	Release        string        `json:"release,omitempty"`
	ReleaseCreated bool          `json:"release_created"`
	Import         *ImportResult `json:"import,omitempty"`
	Errors         []string      `json:"errors,omitempty"`
}

// Failed reports whether the repository needs attention
func (r *RepositoryRecord) Failed() bool {
	return r.ForkState != ForkStateReady || len(r.Errors) > 0
}

// OperationSummary collects the records of one run. Records keep the order of
// the input sources. Signature is empty unless a signing secret is configured.
type OperationSummary struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Records    []*RepositoryRecord `json:"records"`
	Signature  string              `json:"signature,omitempty"`
}

// FailedCount returns the number of records that failed
func (s *OperationSummary) FailedCount() int {
	var n int
	for _, r := range s.Records {
		if r.Failed() {
			n++
		}
	}
	return n
}
