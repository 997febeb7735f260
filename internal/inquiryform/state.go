package inquiryform

import "github.com/wolfman30/vendor-inquiry/internal/inquiry"

// State is the lifecycle position of the form.
type State int

const (
	// StateEditing accepts input and submissions.
	StateEditing State = iota
	// StateSubmitting has one request in flight; submit is disabled.
	StateSubmitting
	// StateSubmitted shows the confirmation until the reset timer fires.
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of the controller, suitable for rendering.
type Snapshot struct {
	State   State
	Draft   inquiry.Draft
	Message string
}

// CanSubmit reports whether the submit control is enabled.
func (s Snapshot) CanSubmit() bool {
	return s.State == StateEditing
}

// SubmitLabel is the caption of the submit control.
func (s Snapshot) SubmitLabel() string {
	if s.State == StateSubmitting {
		return "Submitting..."
	}
	return "Submit Requirement"
}
