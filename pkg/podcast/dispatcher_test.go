package podcast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecast/pkg/request"
)

func validRequest() *GenerationRequest {
	return &GenerationRequest{
		NotebookID:   "nb1",
		NotebookName: "Biology",
		SourceIDs:    []string{"s1", "s2"},
		Mode:         ModeNormal,
		PersonCount:  2,
		HasHost:      true,
	}
}

func TestGenerate_NoSources_NoNetworkCall(t *testing.T) {
	var calls int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer svr.Close()

	d := NewDispatcher(request.New(time.Second), svr.URL, StaticToken("tok"))
	req := validRequest()
	req.SourceIDs = nil

	_, err := d.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoSources)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "precondition failure must not reach the network")
}

func TestGenerate_PersonCountBounds(t *testing.T) {
	d := NewDispatcher(request.New(time.Second), "http://unused", StaticToken("tok"))
	for _, n := range []int{0, 1, 6} {
		req := validRequest()
		req.PersonCount = n
		_, err := d.Generate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "person count %d", n)
	}
}

func TestGenerate_ArchiveResponse(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/podcast/generate/nb1", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "normal", body["podcastMode"])
		assert.Equal(t, float64(2), body["personCount"])
		assert.Equal(t, true, body["hasHost"])
		assert.Len(t, body["sources"], 2)

		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK\x03\x04rest-of-zip"))
	}))
	defer svr.Close()

	d := NewDispatcher(request.New(time.Second), svr.URL, StaticToken("tok"))
	resp, err := d.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, KindArchive, resp.Kind)
}

func TestGenerate_RawAudioResponseWithMeta(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("X-Podcast-Title", "Biology - today")
		w.Header().Set("X-Podcast-Source-Count", "2")
		_, _ = w.Write([]byte{0xFF, 0xFB, 0x90, 0x00})
	}))
	defer svr.Close()

	d := NewDispatcher(request.New(time.Second), svr.URL, StaticToken("tok"))
	resp, err := d.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, KindRawAudio, resp.Kind)
	assert.Equal(t, "Biology - today", resp.Meta.Title)
	assert.Equal(t, "2", resp.Meta.SourceCount)
}

func TestGenerate_ServiceError(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(`{"error":"no sources found for notebook"}`))
	}))
	defer svr.Close()

	d := NewDispatcher(request.New(time.Second), svr.URL, StaticToken("tok"))
	_, err := d.Generate(context.Background(), validRequest())

	var se *ServiceError
	require.True(t, errors.As(err, &se), "expected ServiceError, got %v", err)
	assert.Equal(t, 500, se.Status)
	assert.Equal(t, "no sources found for notebook", se.Message)
}

func TestGenerate_TransportError(t *testing.T) {
	d := NewDispatcher(request.New(500*time.Millisecond), "http://127.0.0.1:1", StaticToken("tok"))
	_, err := d.Generate(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ct   string
		body []byte
		want ResponseKind
	}{
		{"zip content type", "application/zip", []byte("PK\x03\x04"), KindArchive},
		{"audio content type", "audio/mpeg", []byte{0xFF, 0xFB}, KindRawAudio},
		{"octet stream with zip magic", "application/octet-stream", []byte("PK\x03\x04"), KindArchive},
		{"octet stream without magic", "application/octet-stream", []byte{0xFF, 0xFB}, KindRawAudio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.ct, tt.body))
		})
	}
}
