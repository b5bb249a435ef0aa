package usecase

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/obinexuscomputing/fork/pkg/domain/model"
)

// retryableStatus are transient regardless of content type
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// Validator classifies responses of both hosts as Success, Retryable or Fatal
type Validator struct {
	allowed map[string]bool
}

// NewValidator creates a Validator accepting the given content types. An empty
// list disables the content type check.
func NewValidator(allowedContentTypes []string) *Validator {
	allowed := make(map[string]bool, len(allowedContentTypes))
	for _, ct := range allowedContentTypes {
		if mt := mediaType(ct); mt != "" {
			allowed[mt] = true
		}
	}
	return &Validator{allowed: allowed}
}

type validateOptions struct {
	retryable map[int]bool
}

// ValidateOption adjusts a single validation
type ValidateOption func(*validateOptions)

// WithRetryableStatus treats the given statuses as Retryable for this call,
// e.g. 404 while a queued fork is not visible yet
func WithRetryableStatus(codes ...int) ValidateOption {
	return func(o *validateOptions) {
		for _, c := range codes {
			o.retryable[c] = true
		}
	}
}

// Validate classifies a response by status code and declared content type
func (v *Validator) Validate(statusCode int, contentType string, opts ...ValidateOption) *model.ValidationOutcome {
	o := &validateOptions{retryable: map[int]bool{}}
	for _, opt := range opts {
		opt(o)
	}

	outcome := &model.ValidationOutcome{
		StatusCode:  statusCode,
		ContentType: contentType,
	}

	switch {
	case retryableStatus[statusCode] || o.retryable[statusCode]:
		outcome.Classification = model.ClassRetryable
		outcome.Reason = fmt.Sprintf("transient status %d", statusCode)

	case statusCode >= 200 && statusCode <= 299:
		if !v.accepts(contentType) {
			outcome.Classification = model.ClassFatal
			outcome.Reason = "unexpected content type"
			return outcome
		}
		outcome.Classification = model.ClassSuccess

	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		outcome.Classification = model.ClassFatal
		outcome.Reason = fmt.Sprintf("not authorized: status %d", statusCode)

	case statusCode >= 400 && statusCode <= 499:
		outcome.Classification = model.ClassFatal
		outcome.Reason = fmt.Sprintf("request rejected: status %d", statusCode)

	default:
		outcome.Classification = model.ClassFatal
		outcome.Reason = fmt.Sprintf("unexpected status %d", statusCode)
	}

	return outcome
}

// ValidateResponse classifies the result of a client call. A nil response
// means the host never answered (connection error, request timeout), which
// is treated as transient.
func (v *Validator) ValidateResponse(resp *model.APIResponse, callErr error, opts ...ValidateOption) *model.ValidationOutcome {
	if resp == nil {
		reason := "no response"
		if callErr != nil {
			reason = "no response: " + callErr.Error()
		}
		return &model.ValidationOutcome{
			Classification: model.ClassRetryable,
			Reason:         reason,
		}
	}

	outcome := v.Validate(resp.StatusCode, resp.ContentType, opts...)
	if outcome.IsSuccess() && callErr != nil {
		// Well-formed status and content type, but the body did not decode
		outcome.Classification = model.ClassFatal
		outcome.Reason = "malformed response body: " + callErr.Error()
	}
	return outcome
}

func (v *Validator) accepts(contentType string) bool {
	if len(v.allowed) == 0 {
		return true
	}
	return v.allowed[mediaType(contentType)]
}

func mediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
