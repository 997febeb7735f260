package inquiry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownField is returned when a field name is not part of the form.
	ErrUnknownField = errors.New("inquiry: unknown field")

	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("inquiry: validation failed")
)

// User-facing notification texts.
const (
	MessageMissingFields    = "Please fill in all fields!"
	MessageSubmissionFailed = "Submission failed. Please try again."
	MessageTransportFailure = "An error occurred. Please try again."
)

// ValidationError reports required fields left empty or fields holding unacceptable values.
type ValidationError struct {
	Missing []Field
	Invalid []Field
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+joinFields(e.Missing))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+joinFields(e.Invalid))
	}
	if len(parts) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransportError wraps a failure to reach the endpoint or to parse its response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inquiry: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError reports a response that arrived with a non-success status.
type ApplicationError struct {
	StatusCode int
	Body       map[string]any
}

func (e *ApplicationError) Error() string {
	if msg, ok := e.Body["error"].(string); ok && msg != "" {
		return fmt.Sprintf("inquiry: server rejected submission (status=%d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("inquiry: server rejected submission (status=%d)", e.StatusCode)
}

// UserMessage maps an error from a submission onto the text shown to the user.
// It returns "" for nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *ApplicationError
	switch {
	case errors.Is(err, ErrValidation):
		return MessageMissingFields
	case errors.As(err, &appErr):
		return MessageSubmissionFailed
	default:
		return MessageTransportFailure
	}
}

func joinFields(fields []Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
