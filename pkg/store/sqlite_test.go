package store

import (
	"context"
	"path/filepath"
	"testing"

	"notecast/pkg/db"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "store_test.db"))
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewSQLiteStore(d)
}

func TestStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetState(ctx, "missing")
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if ok {
		t.Error("expected miss for unknown key")
	}

	if err := s.SetState(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if err := s.SetState(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetState upsert failed: %v", err)
	}

	value, ok, err := s.GetState(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("GetState after set: ok=%v err=%v", ok, err)
	}
	if value != "v2" {
		t.Errorf("value = %q, want v2", value)
	}
}

func TestToken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	token, err := s.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token, got %q", token)
	}

	if err := s.SetToken(ctx, "bearer-123"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	token, err = s.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "bearer-123" {
		t.Errorf("token = %q", token)
	}
}

func TestGenerationHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, nb := range []string{"nb1", "nb2"} {
		g := &Generation{
			NotebookID:      nb,
			Title:           "Title",
			Description:     "Desc",
			SourceCount:     i + 1,
			DurationSeconds: 42.5,
		}
		if err := s.RecordGeneration(ctx, g); err != nil {
			t.Fatalf("RecordGeneration failed: %v", err)
		}
		if g.ID == 0 {
			t.Error("expected assigned id")
		}
	}

	recent, err := s.RecentGenerations(ctx, 10)
	if err != nil {
		t.Fatalf("RecentGenerations failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len = %d, want 2", len(recent))
	}
	if recent[0].NotebookID != "nb2" {
		t.Errorf("expected newest first, got %q", recent[0].NotebookID)
	}
	if recent[0].DurationSeconds != 42.5 {
		t.Errorf("duration = %v", recent[0].DurationSeconds)
	}
}
