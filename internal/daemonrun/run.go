package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"breathein/internal/api"
	"breathein/internal/config"
	"breathein/internal/daemon"
	"breathein/internal/deps"
	"breathein/internal/ipc"
	"breathein/internal/logging"
	"breathein/internal/metrics"
	"breathein/internal/preflight"
	"breathein/internal/workflow"
)

// Options configures scheduler process runtime behavior.
type Options struct {
	LogLevel   string
	SocketPath string
	CheckLLM   bool
	// Out receives the preflight report; nil discards it.
	Out io.Writer
}

// ErrPreflight reports blocking requirement failures.
var ErrPreflight = errors.New("requirements check failed")

// Run executes the scheduler in the foreground until SIGINT/SIGTERM or an
// IPC stop request.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results := preflight.RunAll(signalCtx, cfg, preflight.Options{CheckLLM: opts.CheckLLM})
	if blocking := preflight.Blocking(results); len(blocking) > 0 {
		if opts.Out != nil {
			for _, r := range blocking {
				fmt.Fprintf(opts.Out, "  %s: %s\n", r.Name, r.Detail)
			}
		}
		return fmt.Errorf("%w: %d blocking issue(s)", ErrPreflight, len(blocking))
	}

	runID := time.Now().UTC().Format("20060102T150405")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("breathein-%s.log", runID))
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update breathein.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, "breathein-*.log", cfg.Logging.RetentionDays, logPath)
	logDependencySnapshot(logger, cfg)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	registry := metrics.NewRegistry(cfg.Schedule.Slots...)
	components, err := workflow.NewFromConfig(cfg, logger, registry)
	if err != nil {
		logger.Error("assemble workflow", logging.Error(err))
		return err
	}
	defer components.Close()

	d, err := daemon.New(cfg, components.Runner.Schedule(), components.Runner, logger,
		daemon.WithPruner(components.Slots),
		daemon.WithNextObserver(registry.NextUpload),
	)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer d.Stop()

	socketPath := strings.TrimSpace(opts.SocketPath)
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, cfg, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	metricsServer := metrics.NewServer(cfg.Metrics.Bind, registry, func() api.DaemonStatus {
		return api.FromDaemonStatus(d.Status())
	}, logger)
	if err := metricsServer.Start(); err != nil {
		logging.WarnWithContext(logger, "metrics server unavailable", "metrics_server_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.bind or free the port"),
			logging.String(logging.FieldImpact, "Prometheus scraping and /v1/status disabled"),
		)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	select {
	case <-signalCtx.Done():
	case <-d.Done():
	}
	logger.Info("breathein scheduler shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "breathein.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	ffmpeg := deps.ResolveBinary(cfg.Video.FFmpegBinary, "ffmpeg")
	ffprobe := deps.ResolveBinary(cfg.Video.FFprobeBinary, "ffprobe")
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("ffmpeg_binary", ffmpeg),
		logging.String("ffprobe_binary", ffprobe),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("metrics_bind", cfg.Metrics.Bind),
		logging.Any("slots", cfg.Schedule.Slots),
	)
}
