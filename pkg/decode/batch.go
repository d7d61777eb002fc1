package decode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"notecast/pkg/podcast"
)

// DecodeAll decodes every segment concurrently and returns the results in
// segment index order, regardless of completion order. Decoding is
// all-or-nothing: a single undecodable segment fails the whole batch, because
// prefix-only playback would misrepresent the requested content.
func DecodeAll(ctx context.Context, dec SegmentDecoder, segments []podcast.AudioSegment) ([]podcast.DecodedSegment, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	results := make([]podcast.DecodedSegment, len(segments))
	errs := make([]error, len(segments))

	var wg sync.WaitGroup
	for i, seg := range segments {
		wg.Add(1)
		go func(slot int, seg podcast.AudioSegment) {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[slot] = ctx.Err()
				return
			}
			decoded, err := dec.Decode(seg.Data)
			if err != nil {
				errs[slot] = fmt.Errorf("segment %d: %w", seg.Index, err)
				return
			}
			results[slot] = decoded
		}(i, seg)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", podcast.ErrDecode, err)
		}
	}

	slog.Debug("Decoded segments", "count", len(results))
	return results, nil
}
