package podcast

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSources indicates generation was requested without any sources.
	ErrNoSources = errors.New("no sources selected")
	// ErrInvalidRequest indicates a request failed precondition checks.
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrTransport indicates the generation service was unreachable.
	ErrTransport = errors.New("generation transport error")
	// ErrBadArchive indicates the response archive could not be read.
	ErrBadArchive = errors.New("malformed segment archive")
	// ErrDecode indicates a segment could not be decoded.
	ErrDecode = errors.New("segment decode error")
	// ErrNoAudio indicates generation produced zero usable segments.
	ErrNoAudio = errors.New("no audio produced")
	// ErrChannelMismatch indicates segments disagree on channel count.
	ErrChannelMismatch = errors.New("channel count mismatch across segments")
	// ErrSampleRateMismatch indicates segments disagree on sample rate.
	ErrSampleRateMismatch = errors.New("sample rate mismatch across segments")
)

// ServiceError is a non-2xx reply from the generation endpoint, carrying the
// backend's message when one was present in the body.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation service error (status %d)", e.Status)
	}
	return fmt.Sprintf("generation service error (status %d): %s", e.Status, e.Message)
}

// IsServiceError reports whether err is a ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
