package oasvalidation

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Configuration errors. These describe a mismatch between the call and the
// document and are returned as-is or wrapped with detail; match with
// [errors.Is].
var (
	ErrUnsupportedVersion = errors.New("unsupported OpenAPI version")
	ErrPathNotFound       = errors.New("path not found")
	ErrOperationNotFound  = errors.New("operation not found")
	ErrResponseNotFound   = errors.New("no response definition declared for status")
	ErrRefCycle           = errors.New("circular $ref")
)

// Failure is a single constraint violation inside a payload.
type Failure struct {
	// InstancePath locates the offending value, in dot notation
	// ("query.verbose", "body.items[2]" stays pointer-ish as "body.items.2").
	// Empty means the payload root.
	InstancePath string `json:"instancePath"`

	// Keyword names the violated constraint ("required", "type", "x-key", ...).
	Keyword string `json:"keyword"`

	// Message is the human-readable reason.
	Message string `json:"message"`
}

func (f Failure) String() string {
	if f.InstancePath == "" {
		return f.Message
	}
	return f.InstancePath + ": " + f.Message
}

// ValidationError reports that a payload violated one or more constraints.
// It is the expected, recoverable outcome of validating bad input.
type ValidationError struct {
	// Message is the rendered summary over all failures.
	Message string `json:"message"`

	// Failures lists every individual violation.
	Failures []Failure `json:"failures"`
}

func (e *ValidationError) Error() string { return e.Message }

// newValidationError renders the summary by grouping failures per instance
// path; the ozzo error map keeps the output sorted and deterministic.
func newValidationError(failures []Failure) *ValidationError {
	errs := validation.Errors{}
	for _, f := range failures {
		key := f.InstancePath
		if key == "" {
			key = "value"
		}
		if prev, ok := errs[key]; ok {
			errs[key] = fmt.Errorf("%s, %s", prev.Error(), f.Message)
		} else {
			errs[key] = errors.New(f.Message)
		}
	}
	return &ValidationError{Message: errs.Error(), Failures: failures}
}

// ResponseShapeError reports a response-like value whose status, body, or
// headers could not be determined. This is an integration bug, not a
// validation failure, so it fails fast instead of producing Failures.
type ResponseShapeError struct {
	Reason string
}

func (e *ResponseShapeError) Error() string {
	return "invalid response value: " + e.Reason
}

// collectFailures flattens a compiled-schema error tree into its leaves.
func collectFailures(err *jsonschema.ValidationError) []Failure {
	if len(err.Causes) == 0 {
		return []Failure{{
			InstancePath: instancePath(err.InstanceLocation),
			Keyword:      lastSegment(err.KeywordLocation),
			Message:      err.Message,
		}}
	}
	var out []Failure
	for _, cause := range err.Causes {
		out = append(out, collectFailures(cause)...)
	}
	return out
}

// instancePath converts a JSON pointer ("/query/verbose") to dot notation.
func instancePath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	ptr = strings.ReplaceAll(ptr, "/", ".")
	ptr = strings.ReplaceAll(ptr, "~1", "/")
	return strings.ReplaceAll(ptr, "~0", "~")
}

func lastSegment(ptr string) string {
	if i := strings.LastIndex(ptr, "/"); i >= 0 {
		return ptr[i+1:]
	}
	return ptr
}
