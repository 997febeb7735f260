package inquiries

import "errors"

var (
	// ErrInquiryNotFound is returned when an inquiry is not found
	ErrInquiryNotFound = errors.New("inquiry not found")
)
