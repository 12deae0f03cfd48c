package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"breathein/internal/config"
)

const userAgent = "breathein/1.0"

// Event identifies what happened.
type Event string

const (
	EventUploadSucceeded  Event = "upload_succeeded"
	EventUploadFailed     Event = "upload_failed"
	EventGenerationFailed Event = "generation_failed"
	EventDaemonStarted    Event = "daemon_started"
	EventTest             Event = "test"
)

// Payload carries event-specific values. Keys used: slot, title, url,
// error, next.
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService returns an ntfy-backed service, or a no-op when no topic is set.
// A bare topic name is published to ntfy.sh.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	if !strings.Contains(topic, "://") {
		topic = "https://ntfy.sh/" + strings.TrimPrefix(topic, "/")
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventUploadSucceeded:  cfg.Notifications.UploadSuccess,
			EventUploadFailed:     cfg.Notifications.UploadFailure,
			EventGenerationFailed: cfg.Notifications.GenerationFailure,
			EventDaemonStarted:    true,
			EventTest:             true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, p Payload) (message, bool) {
	switch event {
	case EventUploadSucceeded:
		body := fmt.Sprintf("✅ Uploaded %s slot: %s", p.str("slot"), oneLine(p.str("title")))
		if url := p.str("url"); url != "" {
			body += "\n" + url
		}
		return message{title: "breathein - Uploaded", body: body, tags: []string{"breathein", "upload", "success"}}, true
	case EventUploadFailed:
		return message{
			title:    "breathein - Upload Failed",
			body:     fmt.Sprintf("❌ Upload failed for %s slot: %s", p.str("slot"), p.str("error")),
			tags:     []string{"breathein", "upload", "failed"},
			priority: "high",
		}, true
	case EventGenerationFailed:
		return message{
			title:    "breathein - Generation Failed",
			body:     fmt.Sprintf("🎞️ Video generation failed for %s slot: %s", p.str("slot"), p.str("error")),
			tags:     []string{"breathein", "video", "failed"},
			priority: "high",
		}, true
	case EventDaemonStarted:
		body := "Scheduler started"
		if next := p.str("next"); next != "" {
			body += "\n" + next
		}
		return message{title: "breathein - Started", body: body, tags: []string{"breathein", "scheduler"}, priority: "low"}, true
	case EventTest:
		return message{title: "breathein - Test", body: "🧪 Notification system test", tags: []string{"breathein", "test"}, priority: "low"}, true
	default:
		return message{}, false
	}
}

func (p Payload) str(key string) string {
	if p == nil {
		return ""
	}
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
