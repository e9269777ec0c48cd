package render

import (
	"errors"
	"fmt"
)

// ErrAlreadyComplete is returned when a resume finds a fresh snapshot whose
// session already completed. The page needs a full reload from storage, not
// a new generation stream.
var ErrAlreadyComplete = errors.New("page already generated within the freshness window")

// ErrorKind classifies stream failures. Transport failures are retried
// within the reconnect bound; semantic failures end the session immediately.
type ErrorKind int

// Stream error kinds.
const (
	KindTransport ErrorKind = iota
	KindSemantic
	KindCanceled
)

// String returns the kind name for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindSemantic:
		return "semantic"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StreamError wraps a stream failure with its classification.
type StreamError struct {
	Kind ErrorKind
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s stream error: %v", e.Kind, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport-level stream error.
func IsTransport(err error) bool {
	var se *StreamError
	return errors.As(err, &se) && se.Kind == KindTransport
}

// IsSemantic reports whether err is a semantic generation error.
func IsSemantic(err error) bool {
	var se *StreamError
	return errors.As(err, &se) && se.Kind == KindSemantic
}

// IsCanceled reports whether err is a cancellation.
func IsCanceled(err error) bool {
	var se *StreamError
	return errors.As(err, &se) && se.Kind == KindCanceled
}
