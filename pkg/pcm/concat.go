// Package pcm holds the raw-sample operations of the assembly pipeline:
// lossless concatenation of decoded segments and the canonical WAV codec.
package pcm

import (
	"fmt"
	"log/slog"

	"notecast/pkg/podcast"
)

// Concatenate merges decoded segments, in the order given, into one
// continuous multi-channel buffer. Channel count and sample rate are taken
// from the first segment; any later segment disagreeing with it fails the
// merge instead of silently producing corrupted audio. No resampling or
// channel remixing is performed.
func Concatenate(segments []podcast.DecodedSegment) (*podcast.ConcatenatedAudio, error) {
	if len(segments) == 0 {
		return nil, podcast.ErrNoAudio
	}

	channels := segments[0].Channels
	rate := segments[0].SampleRate
	if channels < 1 || rate <= 0 {
		return nil, fmt.Errorf("invalid segment format: %d channels at %d Hz", channels, rate)
	}

	total := 0
	for i := range segments {
		s := &segments[i]
		if s.Channels != channels {
			return nil, fmt.Errorf("%w: segment %d has %d, expected %d",
				podcast.ErrChannelMismatch, i, s.Channels, channels)
		}
		if s.SampleRate != rate {
			return nil, fmt.Errorf("%w: segment %d has %d Hz, expected %d Hz",
				podcast.ErrSampleRateMismatch, i, s.SampleRate, rate)
		}
		total += s.FrameCount()
	}
	if total == 0 {
		return nil, podcast.ErrNoAudio
	}

	out := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, total)
	}

	offset := 0
	for i := range segments {
		s := &segments[i]
		for c := 0; c < channels; c++ {
			copy(out[c][offset:], s.Samples[c])
		}
		offset += s.FrameCount()
	}

	audio := &podcast.ConcatenatedAudio{
		Channels:   channels,
		SampleRate: rate,
		Samples:    out,
	}
	slog.Debug("Concatenated segments",
		"segments", len(segments), "frames", total,
		"channels", channels, "rate", rate,
		"duration_s", audio.DurationSeconds())
	return audio, nil
}
