package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the submitted URL is malformed or uses an
	// unsupported scheme (HTTP 400). It is the only user-facing error that
	// aborts an analysis.
	InvalidInput
	// Unreachable indicates the target URL could not be reached.
	Unreachable
	// Timeout indicates the target took too long to respond.
	Timeout
	// ParsingFailed indicates the response could not be parsed.
	ParsingFailed
	// Internal indicates a broken contract between pipeline stages, such as a
	// feature vector of the wrong width (HTTP 500).
	Internal
	// ClassifierFailed indicates the model backend could not score the vector (HTTP 502).
	ClassifierFailed
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unreachable:
		return "unreachable"
	case Timeout:
		return "timeout"
	case ParsingFailed:
		return "parsing_failed"
	case Internal:
		return "internal"
	case ClassifierFailed:
		return "classifier_failed"
	default:
		return "unknown"
	}
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the target domain
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of the first AppError in err's chain, or Unknown.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// InvalidURL builds the InvalidInput error returned by URL normalization.
func InvalidURL(message string, cause error) *AppError {
	return &AppError{Kind: InvalidInput, Message: message, Cause: cause}
}
