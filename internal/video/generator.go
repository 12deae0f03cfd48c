package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"breathein/internal/config"
	"breathein/internal/fileutil"
	"breathein/internal/logging"
	"breathein/internal/services"
)

// TextSource supplies the words painted onto each frame.
type TextSource interface {
	Notification(ctx context.Context) string
	POVCaption() string
}

// Result describes one rendered clip.
type Result struct {
	Path         string
	Background   string
	Music        string
	Notification string
	Caption      string
	Elapsed      time.Duration
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// Generator renders clips by shelling out to ffmpeg.
type Generator struct {
	cfg    *config.Config
	text   TextSource
	logger *slog.Logger
	run    commandRunner

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customizes a Generator.
type Option func(*Generator)

// WithCommandRunner replaces the ffmpeg executor (used in tests).
func WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) Option {
	return func(g *Generator) {
		if r != nil {
			g.run = r
		}
	}
}

// WithRand fixes the random source used for asset and file name draws.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		if rng != nil {
			g.rng = rng
		}
	}
}

// NewGenerator constructs a generator for cfg.
func NewGenerator(cfg *config.Config, text TextSource, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		cfg:    cfg,
		text:   text,
		logger: logging.NewComponentLogger(logger, "video"),
		run:    defaultCommandRunner,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders one clip into the output directory.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	started := time.Now()
	paths := g.cfg.Paths
	video := g.cfg.Video

	g.mu.Lock()
	assets, err := SelectAssets(paths.BackgroundDir, paths.MusicDir, paths.IconsDir, g.rng)
	g.mu.Unlock()
	if err != nil {
		if errors.Is(err, ErrNoAssets) {
			return Result{}, services.Wrap(services.ErrNotFound, "video", "select assets", "add images to "+paths.BackgroundDir, err)
		}
		return Result{}, services.Wrap(services.ErrConfiguration, "video", "select assets", "", err)
	}
	if assets.Music == "" {
		g.logger.Info("no music found; rendering silent clip", logging.String("music_dir", paths.MusicDir))
	}

	result := Result{
		Background:   assets.Background,
		Music:        assets.Music,
		Notification: g.text.Notification(ctx),
		Caption:      g.text.POVCaption(),
	}

	workDir, err := os.MkdirTemp("", "breathein-render-")
	if err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	layout := NewLayout(video.Width, video.Height, result.Caption, result.Notification)
	textFiles, err := writeTextFiles(workDir, layout)
	if err != nil {
		return Result{}, err
	}

	if err := os.MkdirAll(paths.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}
	output := g.outputPath(paths.OutputDir)

	args := BuildArgs(RenderPlan{
		Assets:     assets,
		Layout:     layout,
		TextFiles:  textFiles,
		FontFile:   paths.FontFile,
		Output:     output,
		Duration:   video.DurationSeconds,
		Fade:       video.FadeSeconds,
		FPS:        video.FPS,
		VideoCodec: video.VideoCodec,
		AudioCodec: video.AudioCodec,
	})

	runCtx := ctx
	if video.EncodeTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(video.EncodeTimeoutSeconds)*time.Second)
		defer cancel()
	}
	g.logger.Debug("ffmpeg render starting", logging.String("output", output), logging.String("args", strings.Join(args, " ")))
	if err := g.run(runCtx, video.FFmpegBinary, args...); err != nil {
		_ = fileutil.Remove(output)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTimeout, "video", "ffmpeg encode", "encode timed out", err)
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "video", "ffmpeg encode", "", err)
	}
	if !fileutil.Exists(output) {
		return Result{}, services.Wrap(services.ErrExternalTool, "video", "ffmpeg encode", "ffmpeg reported success but wrote no file", nil)
	}

	result.Path = output
	result.Elapsed = time.Since(started)
	g.logger.Info("video generated",
		logging.String("path", output),
		logging.String("background", filepath.Base(assets.Background)),
		logging.String("music", filepath.Base(assets.Music)),
		logging.Duration("elapsed", result.Elapsed),
		logging.String(logging.FieldEventType, "video_generated"),
	)
	return result, nil
}

// Batch renders n clips, continuing past individual failures. The returned
// error joins every failure.
func (g *Generator) Batch(ctx context.Context, n int) ([]Result, error) {
	var results []Result
	var errs []error
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := g.Generate(ctx)
		if err != nil {
			logging.WarnWithContext(g.logger, "batch render failed; continuing", "video_batch_item_failed",
				logging.Int("index", i+1),
				logging.Int("count", n),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "one fewer clip in this batch"),
			)
			errs = append(errs, fmt.Errorf("video %d/%d: %w", i+1, n, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (g *Generator) outputPath(dir string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		name := fmt.Sprintf("lockscreen_%d.mp4", 1000+g.rng.IntN(9000))
		path := filepath.Join(dir, name)
		if !fileutil.Exists(path) {
			return path
		}
	}
}

func writeTextFiles(dir string, layout Layout) (map[string]string, error) {
	files := make(map[string]string)
	for _, text := range layout.Texts() {
		path := filepath.Join(dir, text.Name+".txt")
		if err := os.WriteFile(path, []byte(text.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s text: %w", text.Name, err)
		}
		files[text.Name] = path
	}
	return files, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
