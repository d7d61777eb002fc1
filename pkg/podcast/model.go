// Package podcast defines the data model for podcast generation and the
// dispatcher that talks to the generation service.
package podcast

import "fmt"

// Mode selects the conversational style of a generated podcast.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeDebate Mode = "debate"
)

// Person count limits enforced before a request leaves the client.
const (
	MinPersonCount = 2
	MaxPersonCount = 5
)

// GenerationRequest describes one podcast generation. It is immutable once
// dispatched and never persisted.
type GenerationRequest struct {
	NotebookID   string
	NotebookName string
	SourceIDs    []string
	Mode         Mode
	PersonCount  int
	HasHost      bool
}

// TotalSpeakers returns the number of participants, including the host.
func (r *GenerationRequest) TotalSpeakers() int {
	n := r.PersonCount
	if r.HasHost {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Validate checks the request preconditions. It must pass before any network
// call is made.
func (r *GenerationRequest) Validate() error {
	if len(r.SourceIDs) == 0 {
		return ErrNoSources
	}
	if r.NotebookID == "" {
		return fmt.Errorf("%w: missing notebook id", ErrInvalidRequest)
	}
	if r.PersonCount < MinPersonCount || r.PersonCount > MaxPersonCount {
		return fmt.Errorf("%w: person count %d outside [%d,%d]",
			ErrInvalidRequest, r.PersonCount, MinPersonCount, MaxPersonCount)
	}
	switch r.Mode {
	case ModeNormal, ModeDebate:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, r.Mode)
	}
	return nil
}

// ResponseKind discriminates the two shapes the generation endpoint can
// return, depending on the backend revision.
type ResponseKind int

const (
	// KindArchive is a zip container of numbered audio segments.
	KindArchive ResponseKind = iota
	// KindRawAudio is a single encoded audio stream.
	KindRawAudio
)

func (k ResponseKind) String() string {
	if k == KindArchive {
		return "archive"
	}
	return "raw-audio"
}

// Meta carries the optional X-Podcast-* response headers the newer backend
// revision attaches to a raw audio stream.
type Meta struct {
	Title       string
	Description string
	Duration    string
	SourceCount string
}

// Response is the tagged result of one generation call. The two kinds flow
// through fully separate decode paths downstream.
type Response struct {
	Kind ResponseKind
	Body []byte
	Meta Meta
}

// AudioSegment is one compressed speech segment extracted from an archive.
// Index defines playback order.
type AudioSegment struct {
	Index int
	Data  []byte
}

// DecodedSegment holds one segment decoded to raw per-channel samples in
// [-1,1]. All segments of one archive must share Channels and SampleRate.
type DecodedSegment struct {
	Channels   int
	SampleRate int
	Samples    [][]float64 // Samples[channel][frame]
}

// FrameCount returns the number of frames (sample instants across channels).
func (s *DecodedSegment) FrameCount() int {
	if len(s.Samples) == 0 {
		return 0
	}
	return len(s.Samples[0])
}

// ConcatenatedAudio is the single continuous buffer assembled from all
// segments of one generation. It is replaced, never mutated, on the next
// generation.
type ConcatenatedAudio struct {
	Channels   int
	SampleRate int
	Samples    [][]float64
}

// FrameCount returns the total number of frames.
func (a *ConcatenatedAudio) FrameCount() int {
	if len(a.Samples) == 0 {
		return 0
	}
	return len(a.Samples[0])
}

// DurationSeconds returns total frame count divided by sample rate.
func (a *ConcatenatedAudio) DurationSeconds() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(a.FrameCount()) / float64(a.SampleRate)
}
