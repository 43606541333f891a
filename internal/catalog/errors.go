package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrEmptyResult means a listing or search matched no rows.
	ErrEmptyResult = errors.New("no record found")
	// ErrInvalidInput means the request itself is malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// UpstreamError wraps a storage failure. The core never retries it.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream failure: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// upstream wraps err unless it already is one of the taxonomy errors.
func upstream(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmptyResult) || errors.Is(err, ErrInvalidInput) {
		return err
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// IsUpstream reports whether err came from the storage collaborator.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// InvalidInput builds an ErrInvalidInput with a reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
