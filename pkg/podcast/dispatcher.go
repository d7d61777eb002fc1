package podcast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"notecast/pkg/request"
)

// TokenSource supplies the bearer credential for the backend. Implemented by
// the persistent store so token changes take effect without restart.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed credential.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(_ context.Context) (string, error) { return string(t), nil }

var zipMagic = []byte("PK\x03\x04")

// Dispatcher sends generation requests to the notebook backend.
type Dispatcher struct {
	client  *request.Client
	baseURL string
	tokens  TokenSource
	now     func() time.Time
}

// NewDispatcher creates a Dispatcher for the given API base URL.
func NewDispatcher(client *request.Client, baseURL string, tokens TokenSource) *Dispatcher {
	return &Dispatcher{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		now:     time.Now,
	}
}

// generateBody is the wire format of the generation endpoint.
type generateBody struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
	PodcastMode string   `json:"podcastMode"`
	PersonCount int      `json:"personCount"`
	HasHost     bool     `json:"hasHost"`
}

// Generate validates req, performs the generation call and returns the tagged
// response. Precondition failures return before any network traffic.
func (d *Dispatcher) Generate(ctx context.Context, req *GenerationRequest) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := d.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	now := d.now()
	name := req.NotebookName
	if name == "" {
		name = req.NotebookID
	}
	body := generateBody{
		Title:       fmt.Sprintf("%s - %s", name, now.Format("2006-01-02T15-04-05")),
		Description: fmt.Sprintf("Podcast generated from %s on %s", name, now.Format("1/2/2006")),
		Sources:     req.SourceIDs,
		PodcastMode: string(req.Mode),
		PersonCount: req.PersonCount,
		HasHost:     req.HasHost,
	}

	u := fmt.Sprintf("%s/api/podcast/generate/%s", d.baseURL, req.NotebookID)
	slog.Info("Dispatching podcast generation",
		"notebook", req.NotebookID, "sources", len(req.SourceIDs),
		"mode", req.Mode, "persons", req.PersonCount, "host", req.HasHost)

	res, err := d.client.PostJSON(ctx, u, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if err != nil {
		var se *request.StatusError
		if errors.As(err, &se) {
			return nil, &ServiceError{Status: se.Status, Message: extractMessage(se.Body)}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	resp := &Response{
		Kind: classify(res.ContentType, res.Body),
		Body: res.Body,
		Meta: Meta{
			Title:       res.Header.Get("X-Podcast-Title"),
			Description: res.Header.Get("X-Podcast-Description"),
			Duration:    res.Header.Get("X-Podcast-Duration"),
			SourceCount: res.Header.Get("X-Podcast-Source-Count"),
		},
	}
	slog.Debug("Generation response", "kind", resp.Kind, "bytes", len(resp.Body))
	return resp, nil
}

// classify discriminates the backend revisions: zip archive of segments vs a
// single raw audio stream. Content type wins; the zip magic covers backends
// that label the archive application/octet-stream.
func classify(contentType string, body []byte) ResponseKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "zip"):
		return KindArchive
	case strings.HasPrefix(ct, "audio/"):
		return KindRawAudio
	case bytes.HasPrefix(body, zipMagic):
		return KindArchive
	default:
		return KindRawAudio
	}
}

// extractMessage pulls the backend's {"error": "..."} message out of an error
// body, falling back to empty for non-JSON bodies.
func extractMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
