package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestLookupReportsPresentAndMissing(t *testing.T) {
	present := filepath.Join(t.TempDir(), "ffmpeg")
	writeStub(t, present)

	probes := Lookup([]Binary{
		{Label: "FFmpeg", Command: present},
		{Label: "FFprobe", Command: "clearly-not-present-binary", Optional: true},
		{Label: "Empty"},
	})
	if len(probes) != 3 {
		t.Fatalf("expected 3 probes, got %d", len(probes))
	}
	if !probes[0].Available() || probes[0].Detail() != present {
		t.Fatalf("expected ffmpeg available at %s, got %+v", present, probes[0])
	}
	if probes[1].Available() || !strings.Contains(probes[1].Detail(), "clearly-not-present-binary") {
		t.Fatalf("expected missing ffprobe, got %+v", probes[1])
	}
	if !probes[1].Optional {
		t.Fatal("expected optional flag carried through")
	}
	if probes[2].Available() || !strings.Contains(probes[2].Detail(), "not configured") {
		t.Fatalf("expected unconfigured probe, got %+v", probes[2])
	}
}

func TestEncodersUseConfiguredBinaries(t *testing.T) {
	bins := Encoders("", "/opt/ffmpeg/bin/ffprobe")
	if len(bins) != 2 {
		t.Fatalf("expected two binaries, got %d", len(bins))
	}
	if bins[0].Command != "ffmpeg" || bins[0].Optional {
		t.Fatalf("unexpected ffmpeg entry %+v", bins[0])
	}
	if bins[1].Command != "/opt/ffmpeg/bin/ffprobe" || !bins[1].Optional {
		t.Fatalf("unexpected ffprobe entry %+v", bins[1])
	}
}

func TestResolveBinaryRelativeExecutable(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeStub(t, filepath.Join(dir, "ffmpeg-static"))

	got := ResolveBinary("ffmpeg-static", "ffmpeg")
	if !filepath.IsAbs(got) || filepath.Base(got) != "ffmpeg-static" {
		t.Fatalf("expected absolute path, got %q", got)
	}
	if got := ResolveBinary("ffmpeg7", "ffmpeg"); got != "ffmpeg7" {
		t.Fatalf("expected PATH name kept, got %q", got)
	}
	if got := ResolveBinary("  ", "ffprobe"); got != "ffprobe" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
