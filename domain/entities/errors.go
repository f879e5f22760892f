package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned for status/result queries on unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrChallengeNotFound is returned when a challenge lookup misses.
	ErrChallengeNotFound = errors.New("challenge not found")
)

// ExternalServiceError reports a fatal response from the transcription
// provider: a non-2xx create/poll response or a transcript in error status.
type ExternalServiceError struct {
	StatusCode int
	Message    string
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcription provider returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transcription provider error: %s", e.Message)
}

// TimeoutError reports that the poll loop exhausted its attempt bound
// without the provider reaching completed status.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transcription timed out after %d polling attempts", e.Attempts)
}
