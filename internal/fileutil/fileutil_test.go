package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := MD5(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "5eb63bbbe01eeed093cb22bb8f5acdc3"; got != want {
		t.Fatalf("MD5 = %s, want %s", got, want)
	}
}

func TestSizeMB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, make([]byte, 1536*1024), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := SizeMB(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.5 {
		t.Fatalf("SizeMB = %v, want 1.5", got)
	}
}

func TestNewestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"lockscreen_1000.mp4", "lockscreen_2000.mp4", "notes.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mod := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}

	got, err := NewestFile(dir, "mp4")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "lockscreen_2000.mp4" {
		t.Fatalf("NewestFile = %s", got)
	}

	if _, err := NewestFile(filepath.Join(dir, "missing"), ".mp4"); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles for missing dir, got %v", err)
	}
	if _, err := NewestFile(dir, ".mov"); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles for unmatched ext, got %v", err)
	}
}

func TestListByExt(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "c.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ListByExt(dir, ".jpg", ".png")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "a.jpg" || filepath.Base(got[1]) != "b.PNG" {
		t.Fatalf("ListByExt = %v", got)
	}
}

func TestRemoveMissingIsNil(t *testing.T) {
	if err := Remove(filepath.Join(t.TempDir(), "gone.mp4")); err != nil {
		t.Fatalf("Remove missing file: %v", err)
	}
}
