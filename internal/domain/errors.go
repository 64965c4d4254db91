package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidURL       = errors.New("unsupported video url")
	ErrResolutionFailed = errors.New("all extraction strategies exhausted")
	ErrBelowThreshold   = errors.New("video below likes threshold")
	ErrDownloadFailed   = errors.New("download failed")
	ErrSessionExpired   = errors.New("selection context expired")
	ErrUnknownChoice    = errors.New("unknown choice")
)

// ResolutionError is returned when every extraction strategy failed.
// Attempts are kept for operator diagnostics and never shown to users.
type ResolutionError struct {
	URL      string
	Attempts []ExtractionAttempt
}

func (e *ResolutionError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Strategy)
	}
	return fmt.Sprintf("%s: tried %s", ErrResolutionFailed, strings.Join(names, ", "))
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailed
}

// BelowThresholdError carries the numbers shown to the user
type BelowThresholdError struct {
	Likes    int64
	Required int
}

func (e *BelowThresholdError) Error() string {
	return fmt.Sprintf("%s: %d < %d", ErrBelowThreshold, e.Likes, e.Required)
}

func (e *BelowThresholdError) Is(target error) bool {
	return target == ErrBelowThreshold
}
