package store

import (
	"errors"
	"fmt"

	"github.com/hupe1980/shed/model"
)

var (
	// ErrDuplicateKey matches any *DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("record not found")

	// ErrStorage matches any *StorageError.
	ErrStorage = errors.New("storage failure")
)

// DuplicateKeyError is returned by Insert when the id is already present.
type DuplicateKeyError struct {
	ID model.ID
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("record already present: %d", e.ID)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// NotFoundError is returned by Remove when the id is absent.
type NotFoundError struct {
	ID model.ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record not present: %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError is any other backend failure: network, malformed data or a
// service-side fault.
//
// The original backend error (if any) can be accessed via errors.Unwrap.
type StorageError struct {
	// Op is the backend operation that failed (e.g. "Scan", "PutItem").
	Op string
	// Code and Message are the backend-provided error code and message, when known.
	Code    string
	Message string

	cause error
}

// NewStorageError wraps cause as a StorageError for op.
func NewStorageError(op, code, message string, cause error) *StorageError {
	return &StorageError{Op: op, Code: code, Message: message, cause: cause}
}

func (e *StorageError) Error() string {
	msg := "storage: " + e.Op
	switch {
	case e.cause == nil:
		// Without a cause the backend code and message are all there is.
		if e.Code != "" {
			msg += ": " + e.Code
		}
		if e.Message != "" {
			msg += ": " + e.Message
		}
	case e.Code == "" && e.Message != "":
		msg += ": " + e.Message + ": " + e.cause.Error()
	default:
		// API errors already render their code and message.
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.cause }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
