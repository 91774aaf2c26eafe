package shed

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/orchestrator"
	"github.com/hupe1980/shed/store"
)

var (
	// ErrInvalidInput matches any *InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClearUnsupported is returned by Clear when the store cannot clear.
	ErrClearUnsupported = errors.New("store does not support clearing")
)

// InvalidInputError reports a malformed or out-of-range caller input.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
	cause  error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return e.cause }

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// ParseID parses a base-10 record identifier.
func ParseID(s string) (model.ID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &InvalidInputError{Field: "id", Value: s, Reason: "not an unsigned 64-bit integer", cause: err}
	}
	return model.ID(v), nil
}

// ParseWeight parses a weight with an optional unit suffix (kg, g, mg, ug).
// A bare number is micrograms.
func ParseWeight(s string) (model.Weight, error) {
	str := strings.TrimSpace(s)

	units := []struct {
		suffix string
		scale  float64
	}{
		{"kg", 1e9},
		{"mg", 1e3},
		{"ug", 1},
		{"g", 1e6},
	}
	for _, u := range units {
		num, ok := strings.CutSuffix(str, u.suffix)
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &InvalidInputError{Field: "weight", Value: s, Reason: "not a non-negative number", cause: err}
		}
		ug := v * u.scale
		// float64(math.MaxUint64) rounds up to 2^64.
		if ug >= float64(math.MaxUint64) {
			return 0, &InvalidInputError{Field: "weight", Value: s, Reason: "out of range"}
		}
		return model.Weight(ug), nil
	}

	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, &InvalidInputError{Field: "weight", Value: s, Reason: "not a weight in micrograms", cause: err}
	}
	return model.Weight(v), nil
}

// Class is the caller-facing category of an error.
type Class int

const (
	// ClassNone is the class of a nil error.
	ClassNone Class = iota
	// ClassInvalidInput covers bad input and duplicate inserts.
	ClassInvalidInput
	// ClassNotFound covers removals of absent records.
	ClassNotFound
	// ClassServer covers everything else, including consistency violations.
	ClassServer
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassInvalidInput:
		return "invalid_input"
	case ClassNotFound:
		return "not_found"
	case ClassServer:
		return "server"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Classify returns the class of err.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, orchestrator.ErrConsistencyViolation):
		return ClassServer
	case errors.Is(err, ErrInvalidInput), errors.Is(err, store.ErrDuplicateKey):
		return ClassInvalidInput
	case errors.Is(err, store.ErrNotFound):
		return ClassNotFound
	default:
		return ClassServer
	}
}
