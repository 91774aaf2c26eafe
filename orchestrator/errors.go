package orchestrator

import (
	"errors"
	"fmt"

	"github.com/hupe1980/shed/model"
)

// ErrConsistencyViolation matches any *ConsistencyError.
var ErrConsistencyViolation = errors.New("consistency violation")

// ConsistencyError reports that a selected record disappeared before it could
// be removed. With a single writer this cannot happen, so it is a server
// fault rather than an ordinary not-found.
type ConsistencyError struct {
	ID model.ID
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("selected record %d was removed concurrently", e.ID)
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistencyViolation }
