package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

func testStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"), opts...)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "init.db"))
	defer s.Close()
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
}

func TestAppendAndHistory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	turns := []struct{ role, content string }{
		{hebrew.RoleUser, "מה גובה הקנס?"},
		{hebrew.RoleAssistant, "1000 ש\"ח"},
		{hebrew.RoleUser, "תודה"},
	}
	for _, tt := range turns {
		if err := s.Append(ctx, "s1", tt.role, tt.content); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	s.Append(ctx, "other", hebrew.RoleUser, "unrelated")

	got, err := s.History(ctx, "s1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	for i, tt := range turns {
		if got[i].Role != tt.role || got[i].Content != tt.content || got[i].SessionID != "s1" {
			t.Errorf("message %d = %+v", i, got[i])
		}
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	s := testStore(t)
	got, err := s.History(context.Background(), "missing")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d messages, want 0", len(got))
	}
}

func TestMaxTurnsDropsOldest(t *testing.T) {
	s := testStore(t, WithMaxTurns(3))
	ctx := context.Background()
	for i := range 5 {
		if err := s.Append(ctx, "s", hebrew.RoleUser, fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, _ := s.History(ctx, "s")
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[0].Content != "m2" || got[2].Content != "m4" {
		t.Errorf("kept %q..%q, want m2..m4", got[0].Content, got[2].Content)
	}
}

func TestPruneIdleSessions(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := t0
	s := testStore(t, WithTTL(24*time.Hour), WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	s.Append(ctx, "old", hebrew.RoleUser, "a")
	s.Append(ctx, "old", hebrew.RoleAssistant, "b")
	clock = t0.Add(23 * time.Hour)
	s.Append(ctx, "fresh", hebrew.RoleUser, "c")

	n, err := s.Prune(ctx, t0.Add(24*time.Hour+time.Minute))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d messages, want 2", n)
	}
	if old, _ := s.History(ctx, "old"); len(old) != 0 {
		t.Errorf("idle session kept %d messages", len(old))
	}
	if fresh, _ := s.History(ctx, "fresh"); len(fresh) != 1 {
		t.Errorf("active session has %d messages, want 1", len(fresh))
	}
}

func TestPruneKeepsSessionWithRecentActivity(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	clock := t0
	s := testStore(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	s.Append(ctx, "s", hebrew.RoleUser, "early")
	clock = t0.Add(20 * time.Hour)
	s.Append(ctx, "s", hebrew.RoleUser, "late")

	n, _ := s.Prune(ctx, t0.Add(30*time.Hour))
	if n != 0 {
		t.Errorf("pruned %d messages from an active session", n)
	}
}

func TestConcurrentAppend(t *testing.T) {
	s := testStore(t, WithMaxTurns(0))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Append(ctx, "s", hebrew.RoleUser, fmt.Sprintf("m%d", i)); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.History(ctx, "s")
	if len(got) != 20 {
		t.Errorf("got %d messages, want 20", len(got))
	}
}
