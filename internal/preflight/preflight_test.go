package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"breathein/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-3.5-turbo","choices":[{"message":{"content":"OK"},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":1}}`))
	}))
	defer srv.Close()

	cfg := config.LLM{APIKey: "good-key", BaseURL: srv.URL, Model: "gpt-3.5-turbo"}
	if result := CheckLLM(context.Background(), cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	cfg.APIKey = "bad-key"
	result := CheckLLM(context.Background(), cfg)
	if result.Passed || result.Detail != "API key rejected (401)" {
		t.Fatalf("expected rejected key, got %+v", result)
	}
	if result := CheckLLM(context.Background(), config.LLM{}); result.Passed || !result.Optional {
		t.Fatalf("expected optional failure for missing key, got %+v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func readyConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.BackgroundDir = filepath.Join(root, "bg")
	cfg.Paths.MusicDir = filepath.Join(root, "music")
	cfg.Paths.IconsDir = filepath.Join(root, "icons")
	cfg.Paths.OutputDir = filepath.Join(root, "out")
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.BackgroundDir, cfg.Paths.MusicDir, cfg.Paths.IconsDir, cfg.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cfg.YouTube.ClientSecretPath = filepath.Join(root, "client_secret.json")
	cfg.YouTube.TokenPath = filepath.Join(root, "token.json")
	if err := os.WriteFile(cfg.YouTube.ClientSecretPath, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.BackgroundDir, "city.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := filepath.Join(root, "ffmpeg")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.Video.FFmpegBinary = stub
	cfg.Video.FFprobeBinary = stub
	cfg.LLM.APIKey = ""
	return &cfg
}

func TestRunAll_ReadyConfigHasNoBlockingFailures(t *testing.T) {
	cfg := readyConfig(t)
	results := RunAll(context.Background(), cfg, Options{})
	if blocking := Blocking(results); len(blocking) != 0 {
		t.Fatalf("unexpected blocking failures: %+v", blocking)
	}
	var sawToken, sawMusic bool
	for _, r := range results {
		switch r.Name {
		case "YouTube token":
			sawToken = !r.Passed && r.Optional
		case "Music tracks":
			sawMusic = !r.Passed && r.Optional
		}
	}
	if !sawToken || !sawMusic {
		t.Fatalf("expected optional token and music warnings, got %+v", results)
	}
}

func TestRunAll_MissingBackgroundsBlocks(t *testing.T) {
	cfg := readyConfig(t)
	if err := os.Remove(filepath.Join(cfg.Paths.BackgroundDir, "city.jpg")); err != nil {
		t.Fatal(err)
	}
	blocking := Blocking(RunAll(context.Background(), cfg, Options{}))
	if len(blocking) != 1 || blocking[0].Name != "Background images" {
		t.Fatalf("expected background check to block, got %+v", blocking)
	}
}
