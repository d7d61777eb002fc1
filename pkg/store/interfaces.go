// Package store is the persistent key-value and history repository for the
// client.
package store

import (
	"context"
	"time"
)

// Generation is one recorded podcast generation.
type Generation struct {
	ID              int64
	NotebookID      string
	Title           string
	Description     string
	SourceCount     int
	DurationSeconds float64
	CreatedAt       time.Time
}

// StateStore persists small key-value state, including the bearer token.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool, error)
	SetState(ctx context.Context, key, value string) error
}

// GenerationStore keeps the generation history.
type GenerationStore interface {
	RecordGeneration(ctx context.Context, g *Generation) error
	RecentGenerations(ctx context.Context, limit int) ([]Generation, error)
}

// Store composes all sub-interfaces for full store access. Consumers should
// depend on specific sub-interfaces when possible.
type Store interface {
	StateStore
	GenerationStore

	// Token returns the stored bearer credential, empty when absent.
	Token(ctx context.Context) (string, error)
	// SetToken persists the bearer credential.
	SetToken(ctx context.Context, token string) error

	// Close closes the store connection.
	Close() error
}
