package tabular

import "fmt"

// Reason classifies a terminal parse failure.
type Reason string

const (
	ReasonUnsupportedFormat      Reason = "unsupported_format"
	ReasonEmptyFile              Reason = "empty_file"
	ReasonMissingRequiredColumns Reason = "missing_required_columns"
	ReasonSizeExceeded           Reason = "size_exceeded"
	ReasonCorruptFormat          Reason = "corrupt_format"
)

// ParseError is a terminal failure for one parse attempt. It carries a
// machine-readable reason and a human-readable message for the UI.
type ParseError struct {
	Reason  Reason
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func parseErrorf(reason Reason, format string, args ...interface{}) *ParseError {
	return &ParseError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the failure reason from an error, or "" if the error is
// not a ParseError.
func ReasonOf(err error) Reason {
	if pe, ok := err.(*ParseError); ok {
		return pe.Reason
	}
	return ""
}
