// Package classify turns individual paragraphs into fiscal-concern scores by
// calling an external LLM, with rate limiting and bounded retry.
package classify

import "fmt"

// TransientError represents a service failure expected to resolve on retry:
// network errors, timeouts, overload, or rate rejections.
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient classification error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient classification error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError represents a structurally valid reply whose token is
// not in the 1..5 vocabulary. Retrying cannot fix a systematically wrong
// prompt or model, so these are recorded as absent rather than retried.
type MalformedResponseError struct {
	ParagraphID string
	Token       string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed classification response for paragraph %s: %q", e.ParagraphID, e.Token)
}
