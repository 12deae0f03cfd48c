package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"breathein/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breathein.log")
	writeLog(t, path, "a\nb\nc\n")

	chunk, err := logs.Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(chunk.Lines) != 2 || chunk.Lines[0] != "b" || chunk.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", chunk.Lines)
	}
	if chunk.Offset != 6 {
		t.Fatalf("expected offset 6, got %d", chunk.Offset)
	}
}

func TestTailLeavesPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breathein.log")
	writeLog(t, path, "one\ntwo\npart")

	chunk, err := logs.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(chunk.Lines) != 2 || chunk.Offset != 8 {
		t.Fatalf("unexpected chunk: %+v", chunk)
	}

	appendLog(t, path, "ial\n")
	next, err := logs.Read(path, chunk.Offset)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "partial" {
		t.Fatalf("expected completed line, got %#v", next.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	chunk, err := logs.Tail(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(chunk.Lines) != 0 || chunk.Offset != 0 {
		t.Fatalf("expected empty chunk, got %+v", chunk)
	}
}

func TestReadRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breathein.log")
	writeLog(t, path, "old run line one\nold run line two\n")
	first, err := logs.Tail(path, 0)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	writeLog(t, path, "new\n")
	chunk, err := logs.Read(path, first.Offset)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(chunk.Lines) != 1 || chunk.Lines[0] != "new" {
		t.Fatalf("expected read from start, got %#v", chunk.Lines)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breathein.log")
	writeLog(t, path, "start\n")
	chunk, err := logs.Tail(path, 1)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, chunk.Offset, 10*time.Millisecond, func(lines []string) {
			mu.Lock()
			got = append(got, lines...)
			mu.Unlock()
		})
	}()

	appendLog(t, path, "later\n")
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("follow never emitted the appended line")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected follow lines: %#v", got)
	}
}
