package assembler

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecast/pkg/podcast"
)

// markerDecoder treats each "compressed" segment as a marker byte and expands
// it into that many frames of mono audio.
type markerDecoder struct{}

func (markerDecoder) Decode(data []byte) (podcast.DecodedSegment, error) {
	if len(data) == 0 {
		return podcast.DecodedSegment{}, fmt.Errorf("empty segment")
	}
	frames := int(data[0])
	samples := make([]float64, frames)
	for i := range samples {
		samples[i] = float64(data[0]) / 255
	}
	return podcast.DecodedSegment{
		Channels:   1,
		SampleRate: 16000,
		Samples:    [][]float64{samples},
	}, nil
}

// stubGenerator returns canned responses.
type stubGenerator struct {
	resp *podcast.Response
	err  error
}

func (g *stubGenerator) Generate(_ context.Context, _ *podcast.GenerationRequest) (*podcast.Response, error) {
	return g.resp, g.err
}

func segmentZip(t *testing.T, markers ...byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, m := range markers {
		w, err := zw.Create(fmt.Sprintf("segment_%d.mp3", i))
		require.NoError(t, err)
		_, err = w.Write([]byte{m})
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testRequest() *podcast.GenerationRequest {
	return &podcast.GenerationRequest{
		NotebookID:  "nb1",
		SourceIDs:   []string{"s1"},
		Mode:        podcast.ModeNormal,
		PersonCount: 3,
		HasHost:     true,
	}
}

func TestGenerate_ArchivePath(t *testing.T) {
	gen := &stubGenerator{resp: &podcast.Response{
		Kind: podcast.KindArchive,
		Body: segmentZip(t, 10, 15, 7),
	}}
	a := New(gen, markerDecoder{}, nil)

	res, err := a.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 32, res.Audio.FrameCount())
	assert.Equal(t, 16000, res.Audio.SampleRate)
	assert.Equal(t, 4, res.TotalSpeakers, "3 persons + host")
	assert.Equal(t, "RIFF", string(res.WAV[:4]))
	assert.Same(t, res, a.Current())
}

func TestGenerate_RawAudioPath(t *testing.T) {
	gen := &stubGenerator{resp: &podcast.Response{
		Kind: podcast.KindRawAudio,
		Body: []byte{42},
		Meta: podcast.Meta{Title: "T"},
	}}
	a := New(gen, markerDecoder{}, nil)

	res, err := a.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 42, res.Audio.FrameCount())
	assert.Equal(t, "T", res.Meta.Title)
}

func TestGenerate_EmptyArchive(t *testing.T) {
	gen := &stubGenerator{resp: &podcast.Response{
		Kind: podcast.KindArchive,
		Body: segmentZip(t), // valid zip, zero segments
	}}
	a := New(gen, markerDecoder{}, nil)

	_, err := a.Generate(context.Background(), testRequest())
	assert.ErrorIs(t, err, podcast.ErrNoAudio)
	assert.Nil(t, a.Current())
}

func TestGenerate_DispatcherErrorPassesThrough(t *testing.T) {
	gen := &stubGenerator{err: podcast.ErrNoSources}
	a := New(gen, markerDecoder{}, nil)

	_, err := a.Generate(context.Background(), testRequest())
	assert.ErrorIs(t, err, podcast.ErrNoSources)
}

// racingGenerator blocks its first call until released; later calls return
// immediately.
type racingGenerator struct {
	mu      sync.Mutex
	started bool
	release chan struct{}
	entered chan struct{}
}

func (g *racingGenerator) Generate(_ context.Context, _ *podcast.GenerationRequest) (*podcast.Response, error) {
	g.mu.Lock()
	first := !g.started
	g.started = true
	g.mu.Unlock()

	if first {
		close(g.entered)
		<-g.release
		return &podcast.Response{Kind: podcast.KindRawAudio, Body: []byte{1}}, nil
	}
	return &podcast.Response{Kind: podcast.KindRawAudio, Body: []byte{9}}, nil
}

func TestGenerate_StaleResultDiscarded(t *testing.T) {
	gen := &racingGenerator{
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
	a := New(gen, markerDecoder{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var slowErr error
	go func() {
		defer wg.Done()
		_, slowErr = a.Generate(context.Background(), testRequest())
	}()
	<-gen.entered // first generation is in flight

	// A newer generation completes while the first is still blocked.
	res, err := a.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, 9, res.Audio.FrameCount())

	// Now the slow one finishes; its result must be discarded.
	close(gen.release)
	wg.Wait()
	assert.ErrorIs(t, slowErr, ErrSuperseded)
	assert.Equal(t, 9, a.Current().Audio.FrameCount(), "stale generation must not overwrite newer audio")
}
