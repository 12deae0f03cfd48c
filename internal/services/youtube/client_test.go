package youtube_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"breathein/internal/config"
	"breathein/internal/logging"
	"breathein/internal/services"
	"breathein/internal/services/youtube"
)

type fakeAPI struct {
	mu       sync.Mutex
	bodies   map[string]string
	status   int
	comments int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"quota exceeded"}}`)
		return
	}
	switch {
	case strings.HasSuffix(r.URL.Path, "/videos"):
		f.bodies["videos"] = string(body)
		_, _ = io.WriteString(w, `{"id":"vid123"}`)
	case strings.HasSuffix(r.URL.Path, "/commentThreads"):
		f.comments++
		f.bodies["comment"] = string(body)
		_, _ = io.WriteString(w, `{"id":"thread1"}`)
	default:
		http.NotFound(w, r)
	}
}

func newClient(t *testing.T, api http.Handler) *youtube.Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	cfg := config.Default()
	client, err := youtube.NewClient(context.Background(), &cfg, logging.NewNop(),
		youtube.WithHTTPClient(srv.Client()),
		youtube.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lockscreen_1234.mp4")
	if err := os.WriteFile(path, []byte("fake mp4 payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadAndComment(t *testing.T) {
	api := &fakeAPI{}
	client := newClient(t, api)
	cfg := config.Default()
	cfg.YouTube.PrivacyStatus = "unlisted"

	v := youtube.NewVideo(cfg.YouTube, writeVideo(t),
		youtube.WithTitle("Success Habits!\nBe the one ✅"),
		youtube.WithDescription("Start your day right!"),
	)
	if v.CategoryID != "22" || len(v.Tags) == 0 {
		t.Fatalf("expected config defaults on video, got %+v", v)
	}

	up, err := client.Upload(context.Background(), v)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.ID != "vid123" || up.URL != "https://www.youtube.com/watch?v=vid123" {
		t.Fatalf("unexpected upload result %+v", up)
	}
	if !strings.Contains(api.bodies["videos"], `"privacyStatus":"unlisted"`) {
		t.Fatalf("expected status in request body, got %q", api.bodies["videos"])
	}
	if !strings.Contains(api.bodies["videos"], "fake mp4 payload") {
		t.Fatal("expected media bytes in upload body")
	}

	id, err := client.Comment(context.Background(), up.ID, "Check Channel Description 💀")
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if id != "thread1" || !strings.Contains(api.bodies["comment"], `"videoId":"vid123"`) {
		t.Fatalf("unexpected comment result %q body=%q", id, api.bodies["comment"])
	}
}

func TestUploadClassifiesForbiddenAsAuth(t *testing.T) {
	client := newClient(t, &fakeAPI{status: http.StatusForbidden})
	cfg := config.Default()
	_, err := client.Upload(context.Background(), youtube.NewVideo(cfg.YouTube, writeVideo(t)))
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client := newClient(t, &fakeAPI{})
	cfg := config.Default()
	_, err := client.Upload(context.Background(), youtube.NewVideo(cfg.YouTube, filepath.Join(t.TempDir(), "gone.mp4")))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewClientWithoutTokenNeedsAuth(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "client_secret.json")
	payload := `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`
	if err := os.WriteFile(secret, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.YouTube.ClientSecretPath = secret
	cfg.YouTube.TokenPath = filepath.Join(dir, "token.json")

	_, err := youtube.NewClient(context.Background(), &cfg, logging.NewNop())
	if !errors.Is(err, services.ErrAuth) || !errors.Is(err, youtube.ErrNoToken) {
		t.Fatalf("expected ErrAuth wrapping ErrNoToken, got %v", err)
	}

	cfg.YouTube.ClientSecretPath = filepath.Join(dir, "missing.json")
	if _, err := youtube.NewClient(context.Background(), &cfg, logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing secret, got %v", err)
	}
}
