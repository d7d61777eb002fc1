// Package archive unpacks the zip container returned by the generation
// service into ordered audio segments.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"notecast/pkg/podcast"
)

// segmentName is the literal entry naming convention used by the backend:
// segment_0.mp3, segment_1.mp3, ... contiguous from zero.
func segmentName(i int) string {
	return fmt.Sprintf("segment_%d.mp3", i)
}

// Extract reads data as a zip archive and returns its segments in numeric
// index order, regardless of the archive's physical entry order. Lookup stops
// at the first missing index. An archive with no matching entries yields an
// empty slice, not an error; the concatenator rejects empty input downstream.
func Extract(data []byte) ([]podcast.AudioSegment, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", podcast.ErrBadArchive, err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	var segments []podcast.AudioSegment
	for i := 0; ; i++ {
		f, ok := entries[segmentName(i)]
		if !ok {
			break
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", podcast.ErrBadArchive, f.Name, err)
		}
		segments = append(segments, podcast.AudioSegment{Index: i, Data: data})
	}

	slog.Debug("Extracted archive", "segments", len(segments), "entries", len(zr.File))
	return segments, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
