package preflight

import (
	"context"

	"breathein/internal/config"
)

// Result reports the outcome of a single preflight check. A failed Optional
// check degrades output but does not block the scheduler.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// Options selects the slower, network-bound checks.
type Options struct {
	CheckLLM bool
}

var (
	backgroundExts = []string{".jpg", ".jpeg", ".png", ".bmp"}
	musicExts      = []string{".mp3"}
)

// RunAll executes the requirements check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckFile("YouTube client secret", cfg.YouTube.ClientSecretPath, "download OAuth desktop credentials from the Google Cloud console"),
	}
	token := CheckFile("YouTube token", cfg.YouTube.TokenPath, "run `breathein auth`")
	token.Optional = true
	results = append(results, token)

	for _, dir := range []struct {
		name string
		path string
	}{
		{"Background directory", cfg.Paths.BackgroundDir},
		{"Music directory", cfg.Paths.MusicDir},
		{"Icons directory", cfg.Paths.IconsDir},
		{"Output directory", cfg.Paths.OutputDir},
		{"Data directory", cfg.Paths.DataDir},
	} {
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}

	results = append(results,
		CheckAssets("Background images", cfg.Paths.BackgroundDir, false, backgroundExts...),
		CheckAssets("Music tracks", cfg.Paths.MusicDir, true, musicExts...),
	)
	results = append(results, CheckSystemDeps(cfg)...)

	if opts.CheckLLM {
		results = append(results, CheckLLM(ctx, cfg.LLM))
	} else {
		results = append(results, CheckAPIKey(cfg.LLM))
	}
	return results
}

// Blocking returns the failed checks that are not optional.
func Blocking(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
