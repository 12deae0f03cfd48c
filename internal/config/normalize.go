package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSchedule()
	c.normalizeLLM()
	c.normalizePricing()
	c.normalizeVideo()
	if err := c.normalizeYouTube(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.background_dir", &c.Paths.BackgroundDir, defaultBackgroundDir},
		{"paths.music_dir", &c.Paths.MusicDir, defaultMusicDir},
		{"paths.icons_dir", &c.Paths.IconsDir, defaultIconsDir},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.font_file", &c.Paths.FontFile, ""},
	}
	for _, field := range fields {
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			trimmed = field.fallback
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeSchedule() {
	slots := make([]string, 0, len(c.Schedule.Slots))
	for _, slot := range c.Schedule.Slots {
		if trimmed := strings.TrimSpace(slot); trimmed != "" {
			slots = append(slots, trimmed)
		}
	}
	c.Schedule.Slots = slots
	c.Schedule.UTCOffset = strings.TrimSpace(c.Schedule.UTCOffset)
	if c.Schedule.UTCOffset == "" {
		c.Schedule.UTCOffset = defaultUTCOffset
	}
	c.Schedule.ZoneLabel = strings.TrimSpace(c.Schedule.ZoneLabel)
	if c.Schedule.ZoneLabel == "" {
		c.Schedule.ZoneLabel = "UTC" + c.Schedule.UTCOffset
	}
	if c.Schedule.CatchupWindowMinutes < 0 {
		c.Schedule.CatchupWindowMinutes = 0
	}
	if c.Schedule.HistoryDays <= 0 {
		c.Schedule.HistoryDays = defaultHistoryDays
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
}

func (c *Config) normalizePricing() {
	if len(c.Pricing) == 0 {
		c.Pricing = DefaultPricing()
		return
	}
	normalized := make(map[string]Price, len(c.Pricing))
	for model, price := range c.Pricing {
		normalized[strings.TrimSpace(model)] = price
	}
	c.Pricing = normalized
}

func (c *Config) normalizeVideo() {
	c.Video.VideoCodec = strings.TrimSpace(c.Video.VideoCodec)
	if c.Video.VideoCodec == "" {
		c.Video.VideoCodec = defaultVideoCodec
	}
	c.Video.AudioCodec = strings.TrimSpace(c.Video.AudioCodec)
	if c.Video.AudioCodec == "" {
		c.Video.AudioCodec = defaultAudioCodec
	}
	c.Video.FFmpegBinary = strings.TrimSpace(c.Video.FFmpegBinary)
	if c.Video.FFmpegBinary == "" {
		c.Video.FFmpegBinary = defaultFFmpegBinary
	}
	c.Video.FFprobeBinary = strings.TrimSpace(c.Video.FFprobeBinary)
	if c.Video.FFprobeBinary == "" {
		c.Video.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Video.EncodeTimeoutSeconds <= 0 {
		c.Video.EncodeTimeoutSeconds = defaultEncodeTimeout
	}
}

func (c *Config) normalizeYouTube() error {
	var err error
	if strings.TrimSpace(c.YouTube.ClientSecretPath) == "" {
		c.YouTube.ClientSecretPath = defaultClientSecretPath
	}
	if c.YouTube.ClientSecretPath, err = expandPath(strings.TrimSpace(c.YouTube.ClientSecretPath)); err != nil {
		return fmt.Errorf("youtube.client_secret_path: %w", err)
	}
	if strings.TrimSpace(c.YouTube.TokenPath) == "" {
		c.YouTube.TokenPath = defaultTokenPath
	}
	if c.YouTube.TokenPath, err = expandPath(strings.TrimSpace(c.YouTube.TokenPath)); err != nil {
		return fmt.Errorf("youtube.token_path: %w", err)
	}
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = defaultCategoryID
	}
	c.YouTube.PrivacyStatus = strings.ToLower(strings.TrimSpace(c.YouTube.PrivacyStatus))
	if c.YouTube.PrivacyStatus == "" {
		c.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	tags := make([]string, 0, len(c.YouTube.Tags))
	seen := make(map[string]struct{}, len(c.YouTube.Tags))
	for _, tag := range c.YouTube.Tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, trimmed)
	}
	c.YouTube.Tags = tags
	c.YouTube.Comment = strings.TrimSpace(c.YouTube.Comment)
	if c.YouTube.UploadTimeoutSeconds <= 0 {
		c.YouTube.UploadTimeoutSeconds = defaultUploadTimeout
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
