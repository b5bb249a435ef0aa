package model

// Classification is the verdict of the response validator
type Classification string

const (
	ClassSuccess   Classification = "success"
	ClassRetryable Classification = "retryable"
	ClassFatal     Classification = "fatal"
)

// APIResponse holds the response facts the validator decides on
type APIResponse struct {
	StatusCode  int
	ContentType string
}

// ValidationOutcome is produced for every inspected response and consumed
// immediately by the caller
type ValidationOutcome struct {
	Classification Classification
	StatusCode     int // 0 when no response was received
	ContentType    string
	Reason         string
}

func (o *ValidationOutcome) IsSuccess() bool   { return o.Classification == ClassSuccess }
func (o *ValidationOutcome) IsRetryable() bool { return o.Classification == ClassRetryable }
func (o *ValidationOutcome) IsFatal() bool     { return o.Classification == ClassFatal }
