package analysis

import "errors"

// ErrNotFound indicates no result exists under the requested id, or that one
// of its two artifacts (verdict, screenshot) is missing.
var ErrNotFound = errors.New("result not found")

// ErrCaptureFailed collapses every capture sub-cause (navigation timeout,
// launch failure, DNS/TLS/HTTP error) into one caller-visible condition.
var ErrCaptureFailed = errors.New("capture failed")

// ErrEmptyEvaluatorResponse indicates the evaluator returned no content at all.
var ErrEmptyEvaluatorResponse = errors.New("empty evaluator response")

// ErrMalformedVerdict indicates evaluator output that does not parse or does
// not satisfy the verdict schema. The whole request fails; there is no repair
// or partial-result recovery.
var ErrMalformedVerdict = errors.New("malformed evaluator verdict")

// ValidationError is a request intake failure surfaced to the caller as-is
// with a 4xx status. The pipeline never starts when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }
