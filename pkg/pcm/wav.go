package pcm

import (
	"encoding/binary"
	"fmt"
	"math"

	"notecast/pkg/podcast"
)

const wavHeaderSize = 44

// EncodeWAV serializes audio into a canonical uncompressed PCM WAV byte
// stream: 44-byte RIFF header followed by interleaved little-endian int16
// frames. The layout is bit-exact so the downloaded file works with any
// external tool. Pure and deterministic; invalid input is rejected upstream.
func EncodeWAV(a *podcast.ConcatenatedAudio) []byte {
	frames := a.FrameCount()
	channels := a.Channels
	blockAlign := channels * 2
	dataLen := frames * blockAlign

	buf := make([]byte, wavHeaderSize+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM tag
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(a.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(a.SampleRate*blockAlign)) // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	off := wavHeaderSize
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			binary.LittleEndian.PutUint16(buf[off:], uint16(quantize(a.Samples[c][f])))
			off += 2
		}
	}
	return buf
}

// quantize clamps s to [-1,1] and scales asymmetrically: negative values by
// 32768, non-negative by 32767, rounded to nearest.
func quantize(s float64) int16 {
	if s < -1 {
		s = -1
	} else if s > 1 {
		s = 1
	}
	if s < 0 {
		return int16(math.Round(s * 32768))
	}
	return int16(math.Round(s * 32767))
}

// DecodeWAV parses bytes produced by EncodeWAV back into a sample buffer.
// It accepts only the canonical layout the encoder emits.
func DecodeWAV(data []byte) (*podcast.ConcatenatedAudio, error) {
	if len(data) < wavHeaderSize {
		return nil, fmt.Errorf("wav too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a wav stream")
	}
	if tag := binary.LittleEndian.Uint16(data[20:22]); tag != 1 {
		return nil, fmt.Errorf("unsupported format tag %d", tag)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}
	if string(data[36:40]) != "data" {
		return nil, fmt.Errorf("missing data chunk")
	}

	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	rate := int(binary.LittleEndian.Uint32(data[24:28]))
	dataLen := int(binary.LittleEndian.Uint32(data[40:44]))
	if channels < 1 || rate <= 0 {
		return nil, fmt.Errorf("bad wav header: %d channels at %d Hz", channels, rate)
	}
	if wavHeaderSize+dataLen > len(data) {
		return nil, fmt.Errorf("truncated wav: header claims %d data bytes", dataLen)
	}

	blockAlign := channels * 2
	frames := dataLen / blockAlign

	samples := make([][]float64, channels)
	for c := range samples {
		samples[c] = make([]float64, frames)
	}
	off := wavHeaderSize
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			v := int16(binary.LittleEndian.Uint16(data[off:]))
			if v < 0 {
				samples[c][f] = float64(v) / 32768
			} else {
				samples[c][f] = float64(v) / 32767
			}
			off += 2
		}
	}

	return &podcast.ConcatenatedAudio{
		Channels:   channels,
		SampleRate: rate,
		Samples:    samples,
	}, nil
}
