// Package decode turns compressed audio segments into raw per-channel sample
// buffers using gopxl/beep.
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2/mp3"

	"notecast/pkg/podcast"
)

// SegmentDecoder decodes one compressed segment into raw samples.
type SegmentDecoder interface {
	Decode(data []byte) (podcast.DecodedSegment, error)
}

// MP3Decoder implements SegmentDecoder for the backend's mp3 segments.
type MP3Decoder struct{}

// NewMP3Decoder creates an MP3Decoder.
func NewMP3Decoder() *MP3Decoder { return &MP3Decoder{} }

// Decode decodes mp3 bytes into per-channel float64 samples in [-1,1].
func (d *MP3Decoder) Decode(data []byte) (podcast.DecodedSegment, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return podcast.DecodedSegment{}, fmt.Errorf("mp3 decode: %w", err)
	}
	defer streamer.Close()

	channels := format.NumChannels
	if channels > 2 {
		channels = 2 // beep streamers carry at most two channels
	}
	if channels < 1 {
		channels = 1
	}

	samples := make([][]float64, channels)
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			samples[0] = append(samples[0], buf[i][0])
			if channels == 2 {
				samples[1] = append(samples[1], buf[i][1])
			}
		}
		if !ok {
			break
		}
	}

	if err := streamer.Err(); err != nil {
		return podcast.DecodedSegment{}, fmt.Errorf("mp3 stream: %w", err)
	}

	return podcast.DecodedSegment{
		Channels:   channels,
		SampleRate: int(format.SampleRate),
		Samples:    samples,
	}, nil
}
