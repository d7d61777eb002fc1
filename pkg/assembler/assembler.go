// Package assembler runs the podcast assembly pipeline for one generation:
// dispatch, extract, decode, concatenate, encode.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"notecast/pkg/archive"
	"notecast/pkg/decode"
	"notecast/pkg/pcm"
	"notecast/pkg/podcast"
	"notecast/pkg/store"
)

// ErrSuperseded indicates a newer generation started while this one was in
// flight; its results were discarded.
var ErrSuperseded = errors.New("generation superseded by a newer request")

// Generator dispatches a generation request. Implemented by
// podcast.Dispatcher.
type Generator interface {
	Generate(ctx context.Context, req *podcast.GenerationRequest) (*podcast.Response, error)
}

// Result is one assembled podcast, ready for playback and download.
type Result struct {
	Audio         *podcast.ConcatenatedAudio
	WAV           []byte
	Meta          podcast.Meta
	TotalSpeakers int
}

// Assembler owns the single current podcast. A new Generate replaces it; a
// stale in-flight generation can never overwrite a newer one (epoch guard).
type Assembler struct {
	generator Generator
	decoder   decode.SegmentDecoder
	history   store.GenerationStore // optional

	mu      sync.Mutex
	epoch   uuid.UUID
	current *Result
}

// New creates an Assembler. history may be nil to skip recording.
func New(generator Generator, decoder decode.SegmentDecoder, history store.GenerationStore) *Assembler {
	return &Assembler{
		generator: generator,
		decoder:   decoder,
		history:   history,
	}
}

// Generate runs the full pipeline and installs the result as current. When a
// newer Generate starts before this one finishes, the finished result is
// discarded and ErrSuperseded returned.
func (a *Assembler) Generate(ctx context.Context, req *podcast.GenerationRequest) (*Result, error) {
	a.mu.Lock()
	myEpoch := uuid.New()
	a.epoch = myEpoch
	a.mu.Unlock()

	resp, err := a.generator.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	audio, err := a.assemble(ctx, resp)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Audio:         audio,
		WAV:           pcm.EncodeWAV(audio),
		Meta:          resp.Meta,
		TotalSpeakers: req.TotalSpeakers(),
	}

	a.mu.Lock()
	if a.epoch != myEpoch {
		a.mu.Unlock()
		slog.Warn("Discarding stale generation result", "notebook", req.NotebookID)
		return nil, ErrSuperseded
	}
	a.current = result
	a.mu.Unlock()

	a.record(ctx, req, result)
	slog.Info("Podcast assembled",
		"notebook", req.NotebookID,
		"duration_s", audio.DurationSeconds(),
		"channels", audio.Channels,
		"rate", audio.SampleRate,
		"wav_bytes", len(result.WAV))
	return result, nil
}

// assemble routes the two response kinds through their separate decode paths.
func (a *Assembler) assemble(ctx context.Context, resp *podcast.Response) (*podcast.ConcatenatedAudio, error) {
	switch resp.Kind {
	case podcast.KindArchive:
		segments, err := archive.Extract(resp.Body)
		if err != nil {
			return nil, err
		}
		if len(segments) == 0 {
			return nil, podcast.ErrNoAudio
		}
		decoded, err := decode.DecodeAll(ctx, a.decoder, segments)
		if err != nil {
			return nil, err
		}
		return pcm.Concatenate(decoded)

	case podcast.KindRawAudio:
		if len(resp.Body) == 0 {
			return nil, podcast.ErrNoAudio
		}
		decoded, err := a.decoder.Decode(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", podcast.ErrDecode, err)
		}
		return pcm.Concatenate([]podcast.DecodedSegment{decoded})

	default:
		return nil, fmt.Errorf("unknown response kind %d", resp.Kind)
	}
}

func (a *Assembler) record(ctx context.Context, req *podcast.GenerationRequest, res *Result) {
	if a.history == nil {
		return
	}
	g := &store.Generation{
		NotebookID:      req.NotebookID,
		Title:           res.Meta.Title,
		Description:     res.Meta.Description,
		SourceCount:     len(req.SourceIDs),
		DurationSeconds: res.Audio.DurationSeconds(),
	}
	if err := a.history.RecordGeneration(ctx, g); err != nil {
		slog.Warn("Failed to record generation history", "error", err)
	}
}

// Current returns the most recently assembled podcast, nil when none exists.
func (a *Assembler) Current() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}
