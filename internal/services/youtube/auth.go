package youtube

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"breathein/internal/services"
)

// Scopes requested during authorization: upload plus comment posting.
var Scopes = []string{youtube.YoutubeUploadScope, youtube.YoutubeForceSslScope}

// LoadClientConfig reads an installed-app client_secret.json.
func LoadClientConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "youtube", "load client secret",
				"download OAuth client credentials to "+path, err)
		}
		return nil, fmt.Errorf("read client secret: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "youtube", "parse client secret", "", err)
	}
	return cfg, nil
}

// Authorize runs the one-time installed-app consent flow. The consent URL is
// written to out; the code arrives either on a loopback redirect or pasted
// into in (as the bare code or the full redirect URL).
func Authorize(ctx context.Context, cfg *oauth2.Config, store *FileTokenStore, out io.Writer, in io.Reader) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("youtube auth: start loopback listener: %w", err)
	}
	defer listener.Close()

	flow := *cfg
	flow.RedirectURL = "http://" + listener.Addr().String() + "/"
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	codes := make(chan string, 2)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state || q.Get("code") == "" {
			http.Error(w, "authorization failed; return to the terminal", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, "breathein is authorized. You can close this tab.")
		codes <- q.Get("code")
	})}
	go func() { _ = srv.Serve(listener) }()
	defer srv.Close()

	authURL := flow.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce, oauth2.S256ChallengeOption(verifier))
	fmt.Fprintf(out, "Open this URL in a browser and approve access:\n\n  %s\n\n", authURL)
	fmt.Fprintln(out, "Waiting for the redirect, or paste the code (or redirect URL) here:")

	if in != nil {
		go func() {
			scanner := bufio.NewScanner(in)
			for scanner.Scan() {
				if code := extractCode(scanner.Text()); code != "" {
					codes <- code
					return
				}
			}
		}()
	}

	var code string
	select {
	case <-ctx.Done():
		return nil, services.Wrap(services.ErrAuth, "youtube", "authorize", "consent not completed", ctx.Err())
	case code = <-codes:
	}

	tok, err := flow.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, services.Wrap(services.ErrAuth, "youtube", "exchange code", "", err)
	}
	if err := store.Save(tok); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Token saved to %s\n", store.Path())
	return tok, nil
}

func extractCode(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if strings.Contains(line, "code=") {
		if u, err := url.Parse(line); err == nil {
			if code := u.Query().Get("code"); code != "" {
				return code
			}
		}
	}
	return line
}
