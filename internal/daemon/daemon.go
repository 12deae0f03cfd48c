package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"breathein/internal/config"
	"breathein/internal/logging"
	"breathein/internal/notifications"
	"breathein/internal/schedule"
	"breathein/internal/workflow"
)

var (
	// ErrAlreadyRunning reports that another scheduler holds the daemon lock.
	ErrAlreadyRunning = errors.New("another breathein scheduler is already running")
	// ErrNotRunning is returned by TriggerNow when the loop is stopped.
	ErrNotRunning = errors.New("scheduler not running")
)

// Runner is the subset of workflow.Runner the loop drives.
type Runner interface {
	RunSlot(ctx context.Context, slot schedule.Slot, opts workflow.RunOptions) (workflow.Attempt, error)
	Last() (workflow.Attempt, bool)
}

// Pruner drops slot completions older than a cutoff day.
type Pruner interface {
	Prune(ctx context.Context, cutoffDay string) (int64, error)
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithClock injects the time source used by the loop.
func WithClock(c Clock) Option {
	return func(d *Daemon) { d.clock = c.normalized() }
}

// WithPruner sets the store pruned on start.
func WithPruner(p Pruner) Option {
	return func(d *Daemon) { d.pruner = p }
}

// WithNotifier sets the service used for the startup notification.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithNextObserver is called whenever the loop picks its next slot.
func WithNextObserver(fn func(time.Time)) Option {
	return func(d *Daemon) { d.onNext = fn }
}

// Daemon owns the scheduling loop and the single-instance lock.
type Daemon struct {
	cfg      *config.Config
	sched    *schedule.Schedule
	runner   Runner
	logger   *slog.Logger
	clock    Clock
	pruner   Pruner
	notifier notifications.Service
	onNext   func(time.Time)

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	mu      sync.Mutex
	loopCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
	next    schedule.Occurrence
}

// Status is a point-in-time view of the daemon.
type Status struct {
	Running       bool
	PID           int
	Next          schedule.Occurrence
	StatusLine    string
	Slots         []string
	LastAttempt   *workflow.Attempt
	LockPath      string
	SlotDBPath    string
	UploadLogPath string
}

// New constructs a daemon. The schedule and runner are required.
func New(cfg *config.Config, sched *schedule.Schedule, runner Runner, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || sched == nil || runner == nil {
		return nil, errors.New("daemon requires config, schedule, and runner")
	}
	d := &Daemon{
		cfg:      cfg,
		sched:    sched,
		runner:   runner,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		clock:    SystemClock(),
		notifier: notifications.NewService(cfg),
		lockPath: cfg.DaemonLockPath(),
		lock:     flock.New(cfg.DaemonLockPath()),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the lock, prunes old completions, and launches the loop.
// Missed-slot catch-up runs on the loop goroutine before the first sleep.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.prune(ctx)

	loopCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.loopCtx = loopCtx
	d.cancel = cancel
	d.done = make(chan struct{})
	d.next = d.sched.Next(d.clock.Now())
	d.mu.Unlock()
	d.running.Store(true)

	d.logger.Info("breathein scheduler started",
		logging.String("lock", d.lockPath),
		logging.Any("slots", d.sched.Strings()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	if err := d.notifier.Publish(ctx, notifications.EventDaemonStarted, notifications.Payload{
		"next": d.sched.StatusLine(d.clock.Now()),
	}); err != nil {
		logging.WarnWithContext(d.logger, "startup notification failed", "notification_failed", logging.Error(err))
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.catchUp(loopCtx)
		d.loop(loopCtx)
	}()
	return nil
}

// Stop cancels the loop, waits for an in-flight attempt to return, and
// releases the lock.
func (d *Daemon) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.loopCtx = nil
	done := d.done
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed", logging.Error(err))
	}
	close(done)
	d.logger.Info("breathein scheduler stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Done is closed after Stop completes.
func (d *Daemon) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// TriggerNow runs the slot matching the current wall clock in the background,
// bypassing the dedupe. The upload lock still serializes it against the loop.
// The run outlives ctx but is cancelled by Stop.
func (d *Daemon) TriggerNow(ctx context.Context) (schedule.Slot, error) {
	if err := ctx.Err(); err != nil {
		return schedule.Slot{}, err
	}
	d.mu.Lock()
	runCtx := d.loopCtx
	if runCtx == nil || !d.running.Load() {
		d.mu.Unlock()
		return schedule.Slot{}, ErrNotRunning
	}
	d.wg.Add(1)
	d.mu.Unlock()

	slot := d.sched.Current(d.clock.Now())
	go func() {
		defer d.wg.Done()
		d.run(runCtx, slot, workflow.RunOptions{Force: true})
	}()
	return slot, nil
}

// Status reports the daemon state.
func (d *Daemon) Status() Status {
	now := d.clock.Now()
	d.mu.Lock()
	next := d.next
	d.mu.Unlock()
	if next.At.IsZero() || !next.At.After(now) {
		next = d.sched.Next(now)
	}
	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Next:          next,
		StatusLine:    d.sched.StatusLine(now),
		Slots:         d.sched.Strings(),
		LockPath:      d.lockPath,
		SlotDBPath:    d.cfg.SlotDBPath(),
		UploadLogPath: d.cfg.UploadLogPath(),
	}
	if last, ok := d.runner.Last(); ok {
		status.LastAttempt = &last
	}
	return status
}

func (d *Daemon) prune(ctx context.Context) {
	days := d.cfg.Schedule.HistoryDays
	if d.pruner == nil || days <= 0 {
		return
	}
	cutoff := d.clock.Now().In(d.sched.Location).AddDate(0, 0, -days).Format(time.DateOnly)
	removed, err := d.pruner.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(d.logger, "slot history prune failed", "slot_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old slot records remain"),
		)
		return
	}
	if removed > 0 {
		d.logger.Info("slot history pruned", logging.Int64("removed", removed), logging.String("before", cutoff))
	}
}

func (d *Daemon) catchUp(ctx context.Context) {
	missed := d.sched.Missed(d.clock.Now(), d.cfg.CatchupWindow())
	for _, occ := range missed {
		if ctx.Err() != nil {
			return
		}
		d.logger.Info("catching up missed slot",
			logging.String(logging.FieldSlot, occ.Slot.String()),
			logging.Time("scheduled_at", occ.At),
			logging.String(logging.FieldEventType, "slot_catchup"),
		)
		d.run(ctx, occ.Slot, workflow.RunOptions{})
	}
}

func (d *Daemon) loop(ctx context.Context) {
	for {
		now := d.clock.Now()
		next := d.sched.Next(now)
		d.mu.Lock()
		d.next = next
		d.mu.Unlock()
		if d.onNext != nil {
			d.onNext(next.At)
		}
		d.logger.Info(d.sched.StatusLine(now),
			logging.String(logging.FieldSlot, next.Slot.String()),
			logging.Time("next_at", next.At),
			logging.String(logging.FieldEventType, "slot_waiting"),
		)

		select {
		case <-ctx.Done():
			return
		case <-d.clock.After(next.At.Sub(now)):
		}
		d.run(ctx, next.Slot, workflow.RunOptions{})
	}
}

func (d *Daemon) run(ctx context.Context, slot schedule.Slot, opts workflow.RunOptions) {
	attempt, err := d.runner.RunSlot(ctx, slot, opts)
	switch {
	case errors.Is(err, workflow.ErrBusy):
		return
	case err != nil:
		logging.WarnWithContext(d.logger, "slot attempt failed", "slot_failed",
			logging.String(logging.FieldSlot, slot.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no video published for this slot"),
		)
	case attempt.Skipped:
	default:
		d.logger.Info("slot attempt finished",
			logging.String(logging.FieldSlot, slot.String()),
			logging.String("status", string(attempt.Entry.Status)),
			logging.String("video_id", attempt.Entry.YouTubeVideoID),
		)
	}
}
