package slotstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"breathein/internal/slotstore"
)

func openStore(t *testing.T) *slotstore.Store {
	t.Helper()
	store, err := slotstore.Open(filepath.Join(t.TempDir(), "nested", "slots.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMarkAndQueryCompleted(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	done, err := store.IsCompleted(ctx, "2025-01-02_07:30")
	if err != nil {
		t.Fatalf("IsCompleted: %v", err)
	}
	if done {
		t.Fatal("expected fresh store to report not completed")
	}

	c := slotstore.Completion{Key: "2025-01-02_07:30", Day: "2025-01-02", Slot: "07:30", VideoID: "vid1", AttemptID: "a1"}
	if err := store.MarkCompleted(ctx, c); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	c.VideoID = "vid2"
	if err := store.MarkCompleted(ctx, c); err != nil {
		t.Fatalf("second MarkCompleted should be ignored, got %v", err)
	}

	done, err = store.IsCompleted(ctx, "2025-01-02_07:30")
	if err != nil || !done {
		t.Fatalf("expected completed, got %v err=%v", done, err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].VideoID != "vid1" {
		t.Fatalf("expected first record to win, got %+v", list)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	for _, day := range []string{"2025-01-01", "2025-01-05", "2025-01-09"} {
		if err := store.MarkCompleted(ctx, slotstore.Completion{Key: day + "_07:30", Day: day, Slot: "07:30", CompletedAt: time.Now()}); err != nil {
			t.Fatalf("MarkCompleted: %v", err)
		}
	}
	removed, err := store.Prune(ctx, "2025-01-05")
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one row pruned, got %d", removed)
	}
	if done, _ := store.IsCompleted(ctx, "2025-01-05_07:30"); !done {
		t.Fatal("cutoff day itself should be kept")
	}
}

func TestReopenKeepsState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slots.db")
	store, err := slotstore.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.MarkCompleted(ctx, slotstore.Completion{Key: "k", Day: "2025-01-01", Slot: "07:30"}); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	_ = store.Close()

	reopened, err := slotstore.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if done, err := reopened.IsCompleted(ctx, "k"); err != nil || !done {
		t.Fatalf("expected state to persist, got %v err=%v", done, err)
	}
}
