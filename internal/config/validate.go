package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Metrics.Bind != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
			return fmt.Errorf("metrics.bind must be host:port: %w", err)
		}
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if len(c.Schedule.Slots) == 0 {
		return errors.New("schedule.slots must include at least one HH:MM time")
	}
	seen := make(map[string]struct{}, len(c.Schedule.Slots))
	for _, slot := range c.Schedule.Slots {
		if !validClock(slot) {
			return fmt.Errorf("schedule.slots entry %q must be HH:MM", slot)
		}
		if _, dup := seen[slot]; dup {
			return fmt.Errorf("schedule.slots entry %q is listed twice", slot)
		}
		seen[slot] = struct{}{}
	}
	if _, err := parseOffset(c.Schedule.UTCOffset); err != nil {
		return fmt.Errorf("schedule.utc_offset: %w", err)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validatePricing() error {
	for model, price := range c.Pricing {
		if model == "" {
			return errors.New("pricing entries must name a model")
		}
		if price.InputPer1K < 0 || price.OutputPer1K < 0 {
			return fmt.Errorf("pricing.%s prices must not be negative", model)
		}
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.width":                  c.Video.Width,
		"video.height":                 c.Video.Height,
		"video.fps":                    c.Video.FPS,
		"video.encode_timeout_seconds": c.Video.EncodeTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Video.DurationSeconds <= 0 {
		return errors.New("video.duration_seconds must be positive")
	}
	if c.Video.FadeSeconds < 0 {
		return errors.New("video.fade_seconds must not be negative")
	}
	if c.Video.FadeSeconds*2 > c.Video.DurationSeconds {
		return errors.New("video.fade_seconds must fit twice inside video.duration_seconds")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	switch c.YouTube.PrivacyStatus {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("youtube.privacy_status must be public, unlisted, or private (got %q)", c.YouTube.PrivacyStatus)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func validClock(value string) bool {
	hour, minute, ok := strings.Cut(value, ":")
	if !ok || len(hour) != 2 || len(minute) != 2 {
		return false
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return false
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m < 0 || m > 59 {
		return false
	}
	return true
}

// parseOffset converts "+05:30" style offsets to seconds east of UTC.
func parseOffset(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "Z" {
		return 0, nil
	}
	sign := 1
	switch value[0] {
	case '+':
		value = value[1:]
	case '-':
		sign = -1
		value = value[1:]
	default:
		return 0, fmt.Errorf("offset %q must start with + or -", value)
	}
	if !validClock(value) {
		return 0, fmt.Errorf("offset must look like +HH:MM")
	}
	hours, _ := strconv.Atoi(value[:2])
	minutes, _ := strconv.Atoi(value[3:])
	if hours > 14 {
		return 0, fmt.Errorf("offset hours %d out of range", hours)
	}
	return sign * (hours*3600 + minutes*60), nil
}
