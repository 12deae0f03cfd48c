package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"breathein/internal/config"
	"breathein/internal/logging"
	"breathein/internal/services"
)

// WatchURLPrefix is prepended to a video id to form its public URL.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// Video is the upload payload.
type Video struct {
	Path        string
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
}

// VideoOption sets one metadata field on a Video.
type VideoOption func(*Video)

func WithTitle(title string) VideoOption { return func(v *Video) { v.Title = title } }

func WithDescription(desc string) VideoOption { return func(v *Video) { v.Description = desc } }

// NewVideo builds an upload payload for path. Tags, category and privacy come
// from cfg; opts set the per-video text.
func NewVideo(cfg config.YouTube, path string, opts ...VideoOption) Video {
	v := Video{
		Path:       path,
		Tags:       append([]string(nil), cfg.Tags...),
		CategoryID: cfg.CategoryID,
		Privacy:    cfg.PrivacyStatus,
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

// Uploaded identifies a published video.
type Uploaded struct {
	ID  string
	URL string
}

// Uploader is what the workflow needs from YouTube.
type Uploader interface {
	Upload(ctx context.Context, v Video) (Uploaded, error)
	Comment(ctx context.Context, videoID, text string) (string, error)
}

// Client wraps the YouTube Data API service.
type Client struct {
	svc     *youtube.Service
	logger  *slog.Logger
	timeout time.Duration
}

type clientOptions struct {
	httpClient *http.Client
	endpoint   string
	store      *FileTokenStore
}

// Option customizes NewClient.
type Option func(*clientOptions)

// WithHTTPClient bypasses OAuth and uses client directly.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = client }
}

// WithEndpoint points the API at another base URL.
func WithEndpoint(endpoint string) Option {
	return func(o *clientOptions) { o.endpoint = endpoint }
}

// WithTokenStore overrides the token file derived from config.
func WithTokenStore(store *FileTokenStore) Option {
	return func(o *clientOptions) { o.store = store }
}

// NewClient builds an authenticated client. Without an injected HTTP client
// it loads client_secret.json and the saved token; a missing token is an
// authentication error telling the operator to run `breathein auth`.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		oauthCfg, err := LoadClientConfig(cfg.YouTube.ClientSecretPath)
		if err != nil {
			return nil, err
		}
		store := o.store
		if store == nil {
			store = NewFileTokenStore(cfg.YouTube.TokenPath)
		}
		tok, err := store.Load()
		if err != nil {
			if errors.Is(err, ErrNoToken) {
				return nil, services.Wrap(services.ErrAuth, "youtube", "load token", "run `breathein auth` first", err)
			}
			return nil, err
		}
		httpClient = oauth2.NewClient(ctx, newPersistingSource(oauthCfg.TokenSource(ctx, tok), store, tok))
	}

	svcOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if o.endpoint != "" {
		svcOpts = append(svcOpts, option.WithEndpoint(o.endpoint))
	}
	svc, err := youtube.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}
	return &Client{
		svc:     svc,
		logger:  logging.NewComponentLogger(logger, "youtube"),
		timeout: time.Duration(cfg.YouTube.UploadTimeoutSeconds) * time.Second,
	}, nil
}

// Upload issues a single videos.insert with the file as media. No retry is
// attempted.
func (c *Client) Upload(ctx context.Context, v Video) (Uploaded, error) {
	file, err := os.Open(v.Path)
	if err != nil {
		return Uploaded{}, services.Wrap(services.ErrNotFound, "youtube", "open video", "", err)
	}
	defer file.Close()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       v.Title,
			Description: v.Description,
			Tags:        v.Tags,
			CategoryId:  v.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: v.Privacy,
		},
	}
	call := c.svc.Videos.Insert([]string{"snippet", "status"}, body).
		Media(file, googleapi.ChunkSize(googleapi.DefaultUploadChunkSize)).
		Context(ctx)

	c.logger.Info("youtube upload starting", logging.String("path", v.Path), logging.String("privacy", v.Privacy))
	resp, err := call.Do()
	if err != nil {
		return Uploaded{}, classify(ctx, "upload", err)
	}
	if strings.TrimSpace(resp.Id) == "" {
		return Uploaded{}, services.Wrap(services.ErrExternalTool, "youtube", "upload", "response carried no video id", nil)
	}
	return Uploaded{ID: resp.Id, URL: WatchURLPrefix + resp.Id}, nil
}

// Comment posts a top-level comment and returns its thread id.
func (c *Client) Comment(ctx context.Context, videoID, text string) (string, error) {
	thread := &youtube.CommentThread{
		Snippet: &youtube.CommentThreadSnippet{
			VideoId: videoID,
			TopLevelComment: &youtube.Comment{
				Snippet: &youtube.CommentSnippet{TextOriginal: text},
			},
		},
	}
	resp, err := c.svc.CommentThreads.Insert([]string{"snippet"}, thread).Context(ctx).Do()
	if err != nil {
		return "", classify(ctx, "comment", err)
	}
	return resp.Id, nil
}

func classify(ctx context.Context, operation string, err error) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "youtube", operation, "", err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrAuth, "youtube", operation, fmt.Sprintf("http %d", apiErr.Code), err)
		default:
			return services.Wrap(services.ErrExternalTool, "youtube", operation, fmt.Sprintf("http %d", apiErr.Code), err)
		}
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return services.Wrap(services.ErrAuth, "youtube", operation, "token refresh failed", err)
	}
	return services.Wrap(services.ErrNetwork, "youtube", operation, "", err)
}
