package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"breathein/internal/config"
	"breathein/internal/content"
	"breathein/internal/fileutil"
	"breathein/internal/logging"
	"breathein/internal/media/ffprobe"
	"breathein/internal/notifications"
	"breathein/internal/schedule"
	"breathein/internal/services"
	"breathein/internal/services/youtube"
	"breathein/internal/slotstore"
	"breathein/internal/uploadlog"
	"breathein/internal/usage"
	"breathein/internal/video"
)

// ErrBusy reports that another process holds the upload lock.
var ErrBusy = errors.New("another upload attempt is in progress")

const noVideoMessage = "No video files found to upload!"

// Generator renders clips.
type Generator interface {
	Generate(ctx context.Context) (video.Result, error)
	Batch(ctx context.Context, n int) ([]video.Result, error)
}

// TitleWriter produces upload titles.
type TitleWriter interface {
	Title(ctx context.Context) string
}

// UploaderFactory builds the uploader on demand so a missing OAuth token only
// fails the attempt that needs it.
type UploaderFactory func(ctx context.Context) (youtube.Uploader, error)

// SlotStore is the dedupe record of completed slots.
type SlotStore interface {
	IsCompleted(ctx context.Context, key string) (bool, error)
	MarkCompleted(ctx context.Context, c slotstore.Completion) error
}

// Prober returns a clip's duration in seconds.
type Prober func(ctx context.Context, path string) (float64, error)

// Observer receives attempt outcomes, typically the metrics registry.
type Observer interface {
	AttemptFinished(slot string, status uploadlog.Status)
	GenerationFinished(elapsed time.Duration)
	LLMCall(call usage.Call)
}

type noopObserver struct{}

func (noopObserver) AttemptFinished(string, uploadlog.Status) {}
func (noopObserver) GenerationFinished(time.Duration)         {}
func (noopObserver) LLMCall(usage.Call)                       {}

// Dependencies are the collaborators a Runner drives.
type Dependencies struct {
	Schedule  *schedule.Schedule
	Generator Generator
	Titles    TitleWriter
	Uploader  UploaderFactory
	Slots     SlotStore
	Log       *uploadlog.Log
	Notifier  notifications.Service
	Observer  Observer
	Logger    *slog.Logger
}

// RunOptions tune a single attempt.
type RunOptions struct {
	// Force bypasses the per-day slot dedupe.
	Force bool
}

// Attempt summarizes a finished attempt.
type Attempt struct {
	ID       string
	Slot     string
	Key      string
	Started  time.Time
	Finished time.Time
	Entry    uploadlog.Entry
	Skipped  bool
}

// Succeeded reports whether the attempt uploaded a video.
func (a Attempt) Succeeded() bool {
	return a.Entry.Succeeded()
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithProbe overrides how clip duration is measured.
func WithProbe(p Prober) Option {
	return func(r *Runner) {
		if p != nil {
			r.probe = p
		}
	}
}

// Runner executes upload attempts.
type Runner struct {
	cfg  *config.Config
	deps Dependencies
	lock *flock.Flock
	busy sync.Mutex

	now   func() time.Time
	probe Prober

	mu      sync.RWMutex
	last    Attempt
	hasLast bool
}

// New constructs a Runner. Missing notifier, observer and logger default to
// no-ops.
func New(cfg *config.Config, deps Dependencies, opts ...Option) *Runner {
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	deps.Logger = logging.NewComponentLogger(deps.Logger, "workflow")
	r := &Runner{
		cfg:  cfg,
		deps: deps,
		lock: flock.New(cfg.UploadLockPath()),
		now:  time.Now,
	}
	r.probe = func(ctx context.Context, path string) (float64, error) {
		result, err := ffprobe.Inspect(ctx, cfg.Video.FFprobeBinary, path)
		if err != nil {
			return 0, err
		}
		return result.DurationSeconds(), nil
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Schedule returns the slot schedule the runner keys attempts by.
func (r *Runner) Schedule() *schedule.Schedule {
	return r.deps.Schedule
}

// Last returns the most recent finished attempt, if any.
func (r *Runner) Last() (Attempt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasLast
}

// RunSlot generates and uploads one clip for slot.
func (r *Runner) RunSlot(ctx context.Context, slot schedule.Slot, opts RunOptions) (Attempt, error) {
	return r.withLock(ctx, slot, func() (Attempt, error) {
		started := r.now()
		key := r.deps.Schedule.Key(started, slot)
		if !opts.Force && r.deps.Slots != nil {
			done, err := r.deps.Slots.IsCompleted(ctx, key)
			if err != nil {
				logging.WarnWithContext(r.deps.Logger, "slot dedupe lookup failed; continuing", "slot_lookup_failed",
					logging.String("slot_key", key),
					logging.Error(err),
					logging.String(logging.FieldImpact, "slot may upload twice today"),
				)
			} else if done {
				r.deps.Logger.Info("slot already uploaded today; skipping",
					logging.String(logging.FieldSlot, slot.String()),
					logging.String("slot_key", key),
					logging.String(logging.FieldEventType, "slot_skipped"),
				)
				return Attempt{Slot: slot.String(), Key: key, Started: started, Finished: started, Skipped: true}, nil
			}
		}
		return r.attempt(ctx, slot, key, started, r.generate)
	})
}

// UploadLatest uploads the newest clip already in the output directory.
func (r *Runner) UploadLatest(ctx context.Context, slot schedule.Slot) (Attempt, error) {
	return r.withLock(ctx, slot, func() (Attempt, error) {
		started := r.now()
		key := r.deps.Schedule.Key(started, slot)
		return r.attempt(ctx, slot, key, started, func(context.Context) (string, error) {
			path, err := fileutil.NewestFile(r.cfg.Paths.OutputDir, ".mp4")
			if err != nil {
				if errors.Is(err, fileutil.ErrNoFiles) {
					return "", errors.New(noVideoMessage)
				}
				return "", err
			}
			return path, nil
		})
	})
}

// GenerateOnly renders n clips without uploading them.
func (r *Runner) GenerateOnly(ctx context.Context, n int) ([]video.Result, error) {
	started := r.now()
	results, err := r.deps.Generator.Batch(ctx, n)
	if len(results) > 0 {
		r.deps.Observer.GenerationFinished(r.now().Sub(started) / time.Duration(len(results)))
	}
	return results, err
}

func (r *Runner) withLock(ctx context.Context, slot schedule.Slot, fn func() (Attempt, error)) (Attempt, error) {
	// The flock is per process; busy covers concurrent callers sharing r.
	if !r.busy.TryLock() {
		return Attempt{}, ErrBusy
	}
	defer r.busy.Unlock()

	locked, err := r.lock.TryLock()
	if err != nil {
		return Attempt{}, fmt.Errorf("acquire upload lock: %w", err)
	}
	if !locked {
		logging.WarnWithContext(r.deps.Logger, "upload lock busy; skipping attempt", "upload_lock_busy",
			logging.String(logging.FieldSlot, slot.String()),
			logging.String("lock_path", r.lock.Path()),
			logging.String(logging.FieldErrorHint, "another breathein process is uploading"),
			logging.String(logging.FieldImpact, "no upload attempted for this slot"),
		)
		return Attempt{}, ErrBusy
	}
	defer func() {
		_ = r.lock.Unlock()
	}()
	if err := ctx.Err(); err != nil {
		return Attempt{}, err
	}
	return fn()
}

type sourceFunc func(ctx context.Context) (string, error)

func (r *Runner) generate(ctx context.Context) (string, error) {
	result, err := r.deps.Generator.Generate(ctx)
	if err != nil {
		return "", err
	}
	r.deps.Observer.GenerationFinished(result.Elapsed)
	return result.Path, nil
}

func (r *Runner) attempt(ctx context.Context, slot schedule.Slot, key string, started time.Time, source sourceFunc) (Attempt, error) {
	id := uuid.NewString()
	ctx = services.WithSlot(ctx, slot.String())
	ctx = services.WithAttemptID(ctx, id)
	logger := logging.WithContext(ctx, r.deps.Logger)

	att := Attempt{
		ID:      id,
		Slot:    slot.String(),
		Key:     key,
		Started: started,
		Entry:   uploadlog.NewEntry(started.In(r.deps.Schedule.Location), slot.String()),
	}
	logger.Info("upload attempt started", logging.String("slot_key", key), logging.String(logging.FieldEventType, "attempt_started"))

	defer func() {
		att.Finished = r.now()
		if err := r.deps.Log.Append(att.Entry); err != nil {
			logging.ErrorWithContext(logger, "append upload log failed", "upload_log_failed",
				logging.Error(err),
				logging.String("path", r.deps.Log.Path()),
				logging.String(logging.FieldErrorHint, "check data_dir permissions"),
			)
		}
		r.deps.Observer.AttemptFinished(att.Slot, att.Entry.Status)
		r.mu.Lock()
		r.last, r.hasLast = att, true
		r.mu.Unlock()
	}()

	path, err := source(ctx)
	if err != nil {
		att.Entry.ErrorMessage = err.Error()
		logging.ErrorWithContext(logger, "video generation failed", "generation_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		r.notify(ctx, notifications.EventGenerationFailed, notifications.Payload{"slot": att.Slot, "error": err.Error()})
		return att, err
	}

	r.describe(ctx, logger, &att.Entry, path)
	title := strings.Join(strings.Fields(strings.ReplaceAll(r.deps.Titles.Title(ctx), "\n", " ")), " ")
	description := content.Description(slot)
	att.Entry.Title = title
	att.Entry.DescriptionPreview = uploadlog.DescriptionPreview(description)

	uploaded, err := r.upload(ctx, youtube.NewVideo(r.cfg.YouTube, path,
		youtube.WithTitle(title),
		youtube.WithDescription(description),
	))
	if err != nil {
		att.Entry.ErrorMessage = err.Error()
		logging.ErrorWithContext(logger, "upload failed; video kept", "upload_failed",
			logging.Error(err),
			logging.String("video", path),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		r.notify(ctx, notifications.EventUploadFailed, notifications.Payload{"slot": att.Slot, "error": err.Error()})
		return att, err
	}

	att.Entry.Status = uploadlog.StatusSuccess
	att.Entry.YouTubeVideoID = uploaded.ID
	att.Entry.YouTubeURL = uploaded.URL
	logger.Info("upload complete",
		logging.String("video_id", uploaded.ID),
		logging.String("url", uploaded.URL),
		logging.String(logging.FieldEventType, "upload_complete"),
	)

	r.comment(ctx, logger, uploaded.ID)
	if r.deps.Slots != nil {
		day := started.In(r.deps.Schedule.Location).Format(time.DateOnly)
		if err := r.deps.Slots.MarkCompleted(ctx, slotstore.Completion{
			Key:         key,
			Day:         day,
			Slot:        att.Slot,
			VideoID:     uploaded.ID,
			AttemptID:   id,
			CompletedAt: r.now(),
		}); err != nil {
			logging.WarnWithContext(logger, "mark slot completed failed", "slot_mark_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "slot may upload again today"),
			)
		}
	}
	if err := fileutil.Remove(path); err != nil {
		att.Entry.ErrorMessage = "Upload successful but failed to delete file: " + err.Error()
		logging.WarnWithContext(logger, "uploaded video not deleted", "video_delete_failed",
			logging.Error(err),
			logging.String("video", path),
			logging.String(logging.FieldImpact, "video remains in output_dir"),
		)
	}
	r.notify(ctx, notifications.EventUploadSucceeded, notifications.Payload{
		"slot":  att.Slot,
		"title": title,
		"url":   uploaded.URL,
	})
	return att, nil
}

func (r *Runner) describe(ctx context.Context, logger *slog.Logger, entry *uploadlog.Entry, path string) {
	entry.VideoFilename = filepath.Base(path)
	if size, err := fileutil.SizeMB(path); err == nil {
		entry.VideoSizeMB = size
	} else {
		logger.Debug("video size unavailable", logging.Error(err))
	}
	if hash, err := fileutil.MD5(path); err == nil {
		entry.FileHash = hash
	} else {
		logger.Debug("video hash unavailable", logging.Error(err))
	}
	duration, err := r.probe(ctx, path)
	if err != nil {
		logger.Debug("video duration unavailable", logging.Error(err))
		duration = 0
	}
	entry.VideoDurationSec = uploadlog.Round2(duration)
}

func (r *Runner) upload(ctx context.Context, v youtube.Video) (youtube.Uploaded, error) {
	if r.deps.Uploader == nil {
		return youtube.Uploaded{}, services.Wrap(services.ErrConfiguration, "workflow", "upload", "no uploader configured", nil)
	}
	uploader, err := r.deps.Uploader(ctx)
	if err != nil {
		return youtube.Uploaded{}, err
	}
	return uploader.Upload(ctx, v)
}

func (r *Runner) comment(ctx context.Context, logger *slog.Logger, videoID string) {
	text := strings.TrimSpace(r.cfg.YouTube.Comment)
	if text == "" {
		return
	}
	uploader, err := r.deps.Uploader(ctx)
	if err == nil {
		_, err = uploader.Comment(ctx, videoID, text)
	}
	if err != nil {
		logging.WarnWithContext(logger, "comment failed", "comment_failed",
			logging.Error(err),
			logging.String("video_id", videoID),
			logging.String(logging.FieldImpact, "video published without the pinned comment"),
		)
	}
}

func (r *Runner) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.deps.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(r.deps.Logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator not notified"),
		)
	}
}
