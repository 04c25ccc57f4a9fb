package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

// Handoff related errors
var (
	ErrHandoffNotFound = errors.New("handoff not found")
	ErrHandoffExpired  = errors.New("handoff expired")
	ErrHandoffConflict = errors.New("handoff token already in use")
)

// Run related errors
var (
	ErrRunNotFound = errors.New("run not found")
)

// Analysis related errors
var (
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// BackendError is returned when the analysis backend answers with a non-2xx status.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}
