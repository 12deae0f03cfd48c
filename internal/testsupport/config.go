package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"breathein/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose every path lives under a fresh temp dir.
// Directories are created; secrets and network endpoints are left empty.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths = config.Paths{
		DataDir:       filepath.Join(base, "data"),
		LogDir:        filepath.Join(base, "logs"),
		BackgroundDir: filepath.Join(base, "bg_images"),
		MusicDir:      filepath.Join(base, "music"),
		IconsDir:      filepath.Join(base, "icons"),
		OutputDir:     filepath.Join(base, "outputVideos"),
	}
	cfgVal.YouTube.ClientSecretPath = filepath.Join(base, "client_secret.json")
	cfgVal.YouTube.TokenPath = filepath.Join(base, "youtube_token.json")
	cfgVal.LLM.APIKey = ""
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Metrics.Bind = ""

	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithBackgrounds writes n placeholder background images.
func WithBackgrounds(n int) ConfigOption {
	return func(b *configBuilder) {
		for i := range n {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.BackgroundDir, "bg_"+string(rune('a'+i))+".jpg"), 16)
		}
	}
}

// WithMusic writes n placeholder mp3 files.
func WithMusic(n int) ConfigOption {
	return func(b *configBuilder) {
		for i := range n {
			WriteFile(b.t, filepath.Join(b.cfg.Paths.MusicDir, "track_"+string(rune('a'+i))+".mp3"), 16)
		}
	}
}

// WithNtfyTopic points notifications at topic, usually an httptest URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
