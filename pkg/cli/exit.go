package cli

import (
	"errors"
	"strconv"
)

// maxExitCode keeps the failed count clear of the codes shells reserve
const maxExitCode = 125

// FailedError is returned when the run completed but some repositories
// failed. It is not a configuration error.
type FailedError struct {
	Count int
}

func (e *FailedError) Error() string {
	return strconv.Itoa(e.Count) + " repositories failed"
}

// ExitCode maps the result of Run to a process exit code: 0 on success, the
// number of failed repositories (at most 125) after a completed run, and 1
// for any other error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var failed *FailedError
	if errors.As(err, &failed) {
		return min(max(failed.Count, 1), maxExitCode)
	}
	return 1
}
