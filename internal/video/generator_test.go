package video_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"breathein/internal/config"
	"breathein/internal/logging"
	"breathein/internal/services"
	"breathein/internal/video"
)

type fixedText struct{}

func (fixedText) Notification(context.Context) string { return "You scrolled 3h. Achievement: none." }
func (fixedText) POVCaption() string                  { return "POV: Duolingo has finally a worthy opponent" }

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.BackgroundDir = filepath.Join(root, "bg")
	cfg.Paths.MusicDir = filepath.Join(root, "music")
	cfg.Paths.IconsDir = filepath.Join(root, "icons")
	cfg.Paths.OutputDir = filepath.Join(root, "out")
	for _, dir := range []string{cfg.Paths.BackgroundDir, cfg.Paths.MusicDir, cfg.Paths.IconsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return &cfg
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fakeFFmpeg records invocations and writes the output path it is given.
type fakeFFmpeg struct {
	calls [][]string
	fail  error
}

func (f *fakeFFmpeg) run(_ context.Context, _ string, args ...string) error {
	f.calls = append(f.calls, args)
	if f.fail != nil {
		return f.fail
	}
	return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
}

func TestGenerateWritesLockscreenFile(t *testing.T) {
	cfg := newConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.BackgroundDir, "city.jpg"))
	writeFile(t, filepath.Join(cfg.Paths.MusicDir, "calm.mp3"))
	writeFile(t, filepath.Join(cfg.Paths.IconsDir, video.TorchIcon))

	ff := &fakeFFmpeg{}
	gen := video.NewGenerator(cfg, fixedText{}, logging.NewNop(),
		video.WithCommandRunner(ff.run), video.WithRand(rand.New(rand.NewPCG(7, 7))))

	res, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !regexp.MustCompile(`^lockscreen_\d{4}\.mp4$`).MatchString(filepath.Base(res.Path)) {
		t.Fatalf("unexpected output name %s", res.Path)
	}
	if filepath.Dir(res.Path) != cfg.Paths.OutputDir {
		t.Fatalf("output should land in output dir, got %s", res.Path)
	}
	if filepath.Base(res.Music) != "calm.mp3" || filepath.Base(res.Background) != "city.jpg" {
		t.Fatalf("unexpected assets %+v", res)
	}
	if res.Notification == "" || !strings.HasPrefix(res.Caption, "POV:") {
		t.Fatalf("expected text recorded in result, got %+v", res)
	}
	if len(ff.calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(ff.calls))
	}
}

func TestGenerateWithoutMusicIsSilent(t *testing.T) {
	cfg := newConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.BackgroundDir, "city.png"))

	ff := &fakeFFmpeg{}
	gen := video.NewGenerator(cfg, fixedText{}, logging.NewNop(), video.WithCommandRunner(ff.run))
	res, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Music != "" {
		t.Fatalf("expected no music, got %s", res.Music)
	}
	if !slices.ContainsFunc(ff.calls[0], func(arg string) bool { return strings.HasPrefix(arg, "anullsrc=") }) {
		t.Fatalf("expected a generated silent track, got %v", ff.calls[0])
	}
}

func TestGenerateWithoutBackgroundFails(t *testing.T) {
	cfg := newConfig(t)
	gen := video.NewGenerator(cfg, fixedText{}, logging.NewNop(), video.WithCommandRunner((&fakeFFmpeg{}).run))
	_, err := gen.Generate(context.Background())
	if !errors.Is(err, video.ErrNoAssets) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNoAssets wrapped as not found, got %v", err)
	}
}

func TestGenerateEncoderFailureLeavesNoFile(t *testing.T) {
	cfg := newConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.BackgroundDir, "city.jpg"))
	ff := &fakeFFmpeg{fail: errors.New("exit status 1: invalid filter")}
	gen := video.NewGenerator(cfg, fixedText{}, logging.NewNop(), video.WithCommandRunner(ff.run))

	_, err := gen.Generate(context.Background())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.OutputDir)
	if len(entries) != 0 {
		t.Fatalf("expected empty output dir, got %d entries", len(entries))
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	cfg := newConfig(t)
	writeFile(t, filepath.Join(cfg.Paths.BackgroundDir, "city.jpg"))
	calls := 0
	runner := func(_ context.Context, _ string, args ...string) error {
		calls++
		if calls == 2 {
			return errors.New("boom")
		}
		return os.WriteFile(args[len(args)-1], []byte("mp4"), 0o644)
	}
	gen := video.NewGenerator(cfg, fixedText{}, logging.NewNop(), video.WithCommandRunner(runner))

	results, err := gen.Batch(context.Background(), 3)
	if len(results) != 2 {
		t.Fatalf("expected 2 successes, got %d", len(results))
	}
	if err == nil || !strings.Contains(err.Error(), "video 2/3") {
		t.Fatalf("expected joined error naming item 2, got %v", err)
	}
}
