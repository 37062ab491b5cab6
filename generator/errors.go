package generator

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPlatform = errors.New("platform not supported")
	ErrNoPlatforms         = errors.New("no target platforms requested")
	ErrNoSupportedPlatform = errors.New("none of the requested platforms is supported")
	ErrEmptyCompletion     = errors.New("model returned empty output")
)

// GenerationError reports a failed model call: transport, API status or empty output.
type GenerationError struct {
	Platform string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Platform == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed for %s: %v", e.Platform, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// MalformedResponseError reports a model reply that is not usable JSON or lacks "text".
type MalformedResponseError struct {
	Platform string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("malformed response for %s: %s", e.Platform, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// LimitExceededError is only produced when strict limits are enabled.
type LimitExceededError struct {
	Platform string
	Count    int
	Limit    int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("content for %s has %d characters, limit is %d", e.Platform, e.Count, e.Limit)
}
