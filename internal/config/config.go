package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	BackgroundDir string `toml:"background_dir"`
	MusicDir      string `toml:"music_dir"`
	IconsDir      string `toml:"icons_dir"`
	OutputDir     string `toml:"output_dir"`
	FontFile      string `toml:"font_file"`
}

// Schedule contains the daily upload slots and the fixed zone they are
// expressed in.
type Schedule struct {
	Slots                []string `toml:"slots"`
	UTCOffset            string   `toml:"utc_offset"`
	ZoneLabel            string   `toml:"zone_label"`
	CatchupWindowMinutes int      `toml:"catchup_window_minutes"`
	HistoryDays          int      `toml:"history_days"`
}

// LLM contains the chat-completions connection settings.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
}

// Price is the per-1K-token rate for one model.
type Price struct {
	InputPer1K  float64 `toml:"input_per_1k"`
	OutputPer1K float64 `toml:"output_per_1k"`
}

// Video contains rendering and encoder settings.
type Video struct {
	Width                int     `toml:"width"`
	Height               int     `toml:"height"`
	DurationSeconds      float64 `toml:"duration_seconds"`
	FadeSeconds          float64 `toml:"fade_seconds"`
	FPS                  int     `toml:"fps"`
	VideoCodec           string  `toml:"video_codec"`
	AudioCodec           string  `toml:"audio_codec"`
	FFmpegBinary         string  `toml:"ffmpeg_binary"`
	FFprobeBinary        string  `toml:"ffprobe_binary"`
	EncodeTimeoutSeconds int     `toml:"encode_timeout_seconds"`
}

// YouTube contains upload credentials and the fixed metadata payload.
type YouTube struct {
	ClientSecretPath     string   `toml:"client_secret_path"`
	TokenPath            string   `toml:"token_path"`
	CategoryID           string   `toml:"category_id"`
	PrivacyStatus        string   `toml:"privacy_status"`
	Tags                 []string `toml:"tags"`
	Comment              string   `toml:"comment"`
	UploadTimeoutSeconds int      `toml:"upload_timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic         string `toml:"ntfy_topic"`
	RequestTimeout    int    `toml:"request_timeout"`
	UploadSuccess     bool   `toml:"upload_success"`
	UploadFailure     bool   `toml:"upload_failure"`
	GenerationFailure bool   `toml:"generation_failure"`
}

// Metrics contains the Prometheus/status HTTP listener settings.
// An empty Bind disables the listener.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for breathein.
//
// Configuration sections by subsystem:
//   - Paths: asset, output, data and log directories
//   - Schedule: daily slots, zone offset, catch-up window
//   - LLM: chat-completions endpoint used for captions and titles
//   - Pricing: per-model token prices for the usage tracker
//   - Video: frame geometry and ffmpeg settings
//   - YouTube: OAuth files and upload metadata
//   - Notifications: ntfy push notification settings
//   - Metrics: Prometheus listener
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths            `toml:"paths"`
	Schedule      Schedule         `toml:"schedule"`
	LLM           LLM              `toml:"llm"`
	Pricing       map[string]Price `toml:"pricing"`
	Video         Video            `toml:"video"`
	YouTube       YouTube          `toml:"youtube"`
	Notifications Notifications    `toml:"notifications"`
	Metrics       Metrics          `toml:"metrics"`
	Logging       Logging          `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/breathein/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A file that sets [pricing] replaces the built-in table.
		cfg.Pricing = nil
		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("breathein.toml")
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the scheduler writes to. Asset
// directories are created too so a fresh install shows where to drop files.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		c.Paths.OutputDir,
		c.Paths.BackgroundDir,
		c.Paths.MusicDir,
		c.Paths.IconsDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Location returns the fixed-offset zone the schedule is expressed in.
func (c *Config) Location() *time.Location {
	offset, err := parseOffset(c.Schedule.UTCOffset)
	if err != nil {
		offset = 0
	}
	return time.FixedZone(c.Schedule.ZoneLabel, offset)
}

// CatchupWindow returns how late a missed slot may still run at startup.
func (c *Config) CatchupWindow() time.Duration {
	return time.Duration(c.Schedule.CatchupWindowMinutes) * time.Minute
}

// UsageFile is the JSON store for the token usage session.
func (c *Config) UsageFile() string {
	return filepath.Join(c.Paths.DataDir, "token_usage.json")
}

// UploadLogPath is the CSV upload history.
func (c *Config) UploadLogPath() string {
	return filepath.Join(c.Paths.DataDir, "upload_log.csv")
}

// SlotDBPath is the SQLite database tracking completed slots.
func (c *Config) SlotDBPath() string {
	return filepath.Join(c.Paths.DataDir, "slots.db")
}

// UploadLockPath guards a single upload attempt across processes.
func (c *Config) UploadLockPath() string {
	return filepath.Join(c.Paths.DataDir, "upload.lock")
}

// DaemonLockPath guards a single scheduler instance.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.LogDir, "breathein.lock")
}

// SocketPath is the control socket of a running scheduler.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "breathein.sock")
}

// PIDPath records the pid of a running scheduler.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "breathein.pid")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		switch {
		case pathValue == "~":
			pathValue = home
		case len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\'):
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
