package model

// ForkState is the lifecycle of a single fork operation
type ForkState string

const (
	ForkStateRequested ForkState = "requested"
	ForkStatePending   ForkState = "pending"
	ForkStateReady     ForkState = "ready"
	ForkStateTimedOut  ForkState = "timed_out"
	ForkStateRejected  ForkState = "rejected"
)

// IsTerminal reports whether no further transition can happen
func (s ForkState) IsTerminal() bool {
	switch s {
	case ForkStateReady, ForkStateTimedOut, ForkStateRejected:
		return true
	default:
		return false
	}
}

// ForkResult is what the fork poller hands to the next step
type ForkResult struct {
	State      ForkState
	Repository *Repository // nil unless the host told us where the fork lives
	Attempts   int         // calls consumed, creation included
	Reason     string      // last non-success reason, empty when Ready
}

// IsReady reports whether the fork can be used for release and import
func (r *ForkResult) IsReady() bool {
	return r != nil && r.State == ForkStateReady && r.Repository != nil
}
