package mapping

import (
	"errors"
	"fmt"
)

// Errors a caller can correct by changing the request.
var (
	ErrInvalidRequest = errors.New("invalid request body")
	ErrMissingField   = errors.New("key and value are required")
	ErrInvalidURL     = errors.New("invalid url format")
	ErrKeyConflict    = errors.New("key already exists")
	ErrNotFound       = errors.New("not found")
)

// StoreError wraps an unexpected failure of the underlying store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeFailure(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
