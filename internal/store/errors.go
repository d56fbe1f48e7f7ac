package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the backend reports the document as missing,
// either in-band (`{"err":404}`) or with an HTTP 404 status.
var ErrNotFound = errors.New("document not found")

// TransportError describes a failed store call that was not a missing document
type TransportError struct {
	Op     string // getFileContent, saveFileContent, ...
	Status int    // HTTP status, 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
