package types

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy. A single error may carry several tags, e.g. a rejected fork
// caused by a 403 carries both ErrTagForkRejected and ErrTagAuth.
var (
	ErrTagAuth         = goerr.NewTag("auth")
	ErrTagRateLimit    = goerr.NewTag("rate_limit")
	ErrTagValidation   = goerr.NewTag("validation")
	ErrTagForkRejected = goerr.NewTag("fork_rejected")
	ErrTagForkTimeout  = goerr.NewTag("fork_timed_out")
	ErrTagRelease      = goerr.NewTag("release")
	ErrTagImport       = goerr.NewTag("import")
	ErrTagConfig       = goerr.NewTag("config")
	ErrTagAborted      = goerr.NewTag("aborted")
)
