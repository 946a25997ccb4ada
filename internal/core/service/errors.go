package service

import (
	"errors"
	"fmt"
)

var (
	ErrGenerationFailed        = errors.New("generation failed")
	ErrRetriesExhausted        = errors.New("serial collisions exhausted retries")
	ErrVerificationUnavailable = errors.New("verification unavailable")
	ErrStatisticsUnavailable   = errors.New("statistics unavailable")
)

// GenerationError reports a failed batch. Records inserted before the failure
// stay committed; Committed counts them and BatchID finds them.
type GenerationError struct {
	BatchID   string
	Committed int
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for batch %s (%d committed): %v", e.BatchID, e.Committed, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}
