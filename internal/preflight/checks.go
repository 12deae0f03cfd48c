package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"breathein/internal/config"
	"breathein/internal/deps"
	"breathein/internal/fileutil"
	"breathein/internal/services/llm"
)

// CheckLLM verifies that the chat endpoint is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, cfg config.LLM) Result {
	const name = "LLM API"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing", Optional: true}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	})
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err), Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable", Optional: true}
}

// CheckAPIKey reports whether an LLM key is configured. Without one every
// caption and title uses its fallback text.
func CheckAPIKey(cfg config.LLM) Result {
	const name = "LLM API key"
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "not set (fallback text will be used)", Optional: true}
	}
	return Result{Name: name, Passed: true, Detail: "configured", Optional: true}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies that path exists and is a readable regular file.
func CheckFile(name, path, hint string) Result {
	info, err := os.Stat(path)
	if err != nil {
		detail := fmt.Sprintf("%s (missing)", path)
		if hint != "" {
			detail += "; " + hint
		}
		return Result{Name: name, Detail: detail}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckAssets counts files with one of exts in dir.
func CheckAssets(name, dir string, optional bool, exts ...string) Result {
	files, err := fileutil.ListByExt(dir, exts...)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err), Optional: optional}
	}
	if len(files) == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("none found in %s", dir), Optional: optional}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d found", len(files)), Optional: optional}
}

// CheckSystemDeps evaluates the encoder binaries.
func CheckSystemDeps(cfg *config.Config) []Result {
	probes := deps.Lookup(deps.Encoders(cfg.Video.FFmpegBinary, cfg.Video.FFprobeBinary))
	results := make([]Result, 0, len(probes))
	for _, probe := range probes {
		results = append(results, Result{
			Name:     probe.Label,
			Passed:   probe.Available(),
			Detail:   probe.Detail(),
			Optional: probe.Optional,
		})
	}
	return results
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	if code := llm.StatusCode(err); code == 401 || code == 403 {
		return fmt.Sprintf("API key rejected (%d)", code)
	}
	return err.Error()
}
