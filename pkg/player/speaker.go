package player

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"notecast/pkg/podcast"
)

// speakerSampleRate is the fixed device rate; sources are resampled to it so
// the speaker is initialized exactly once.
const speakerSampleRate = 48000

// SpeakerSink plays assembled audio on the local output device using
// gopxl/beep. Construct one per component lifetime and Release it on
// teardown; it owns the speaker instead of relying on an ambient global.
type SpeakerSink struct {
	mu          sync.Mutex
	initialized bool
}

// NewSpeakerSink creates an uninitialized SpeakerSink. The device is opened
// lazily on the first Start.
func NewSpeakerSink() *SpeakerSink {
	return &SpeakerSink{}
}

// Start begins audible playback of a.
func (s *SpeakerSink) Start(a *podcast.ConcatenatedAudio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		rate := beep.SampleRate(speakerSampleRate)
		if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		s.initialized = true
		slog.Debug("Speaker initialized", "rate", speakerSampleRate)
	}

	streamer := newBufferStreamer(a)
	resampled := beep.Resample(3, beep.SampleRate(a.SampleRate), speakerSampleRate, streamer)
	speaker.Clear()
	speaker.Play(resampled)
	return nil
}

// Stop clears the speaker without closing the device.
func (s *SpeakerSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		speaker.Clear()
	}
}

// Release stops playback and drops the device claim.
func (s *SpeakerSink) Release() {
	s.Stop()
}

// bufferStreamer adapts a ConcatenatedAudio buffer to beep.Streamer. Mono
// buffers are duplicated onto both output channels.
type bufferStreamer struct {
	audio *podcast.ConcatenatedAudio
	pos   int
}

func newBufferStreamer(a *podcast.ConcatenatedAudio) *bufferStreamer {
	return &bufferStreamer{audio: a}
}

func (b *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	frames := b.audio.FrameCount()
	if b.pos >= frames {
		return 0, false
	}
	n := 0
	for ; n < len(samples) && b.pos < frames; n++ {
		left := b.audio.Samples[0][b.pos]
		right := left
		if b.audio.Channels > 1 {
			right = b.audio.Samples[1][b.pos]
		}
		samples[n][0] = left
		samples[n][1] = right
		b.pos++
	}
	return n, true
}

func (b *bufferStreamer) Err() error { return nil }
