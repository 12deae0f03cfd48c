package daemon_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"breathein/internal/daemon"
	"breathein/internal/schedule"
	"breathein/internal/testsupport"
	"breathein/internal/uploadlog"
	"breathein/internal/workflow"
)

type fakeRunner struct {
	mu    sync.Mutex
	slots []string
	force []bool
	ran   chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{ran: make(chan string, 8)}
}

func (r *fakeRunner) RunSlot(_ context.Context, slot schedule.Slot, opts workflow.RunOptions) (workflow.Attempt, error) {
	r.mu.Lock()
	r.slots = append(r.slots, slot.String())
	r.force = append(r.force, opts.Force)
	r.mu.Unlock()
	r.ran <- slot.String()
	return workflow.Attempt{Slot: slot.String(), Entry: uploadlog.Entry{Status: uploadlog.StatusSuccess}}, nil
}

func (r *fakeRunner) Last() (workflow.Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.slots) == 0 {
		return workflow.Attempt{}, false
	}
	return workflow.Attempt{Slot: r.slots[len(r.slots)-1]}, true
}

// blockingRunner holds every attempt open until its context ends.
type blockingRunner struct {
	started chan struct{}
	ended   chan error
}

func (r *blockingRunner) RunSlot(ctx context.Context, slot schedule.Slot, _ workflow.RunOptions) (workflow.Attempt, error) {
	r.started <- struct{}{}
	<-ctx.Done()
	r.ended <- ctx.Err()
	return workflow.Attempt{Slot: slot.String()}, ctx.Err()
}

func (r *blockingRunner) Last() (workflow.Attempt, bool) { return workflow.Attempt{}, false }

type fakePruner struct {
	cutoff string
}

func (p *fakePruner) Prune(_ context.Context, cutoff string) (int64, error) {
	p.cutoff = cutoff
	return 2, nil
}

type manualClock struct {
	now   time.Time
	fires chan time.Time
	waits chan time.Duration
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now, fires: make(chan time.Time), waits: make(chan time.Duration, 8)}
}

func (c *manualClock) clock() daemon.Clock {
	return daemon.Clock{
		Now: func() time.Time { return c.now },
		After: func(d time.Duration) <-chan time.Time {
			c.waits <- d
			return c.fires
		},
	}
}

func newSchedule(t *testing.T) *schedule.Schedule {
	t.Helper()
	sched, err := schedule.New([]string{"07:30", "19:00"}, time.UTC)
	if err != nil {
		t.Fatalf("schedule.New: %v", err)
	}
	return sched
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for daemon")
	}
	var zero T
	return zero
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newManualClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	d, err := daemon.New(cfg, newSchedule(t), newFakeRunner(), nil, daemon.WithClock(clock.clock()))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if wait := waitFor(t, clock.waits); wait != 7*time.Hour {
		t.Fatalf("expected 7h wait for 19:00, got %v", wait)
	}

	status := d.Status()
	if !status.Running || status.Next.Slot.String() != "19:00" {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.StatusLine != "Next upload in 7h 0m at 19:00 UTC" {
		t.Fatalf("unexpected status line %q", status.StatusLine)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Stop")
	}
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newManualClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	first, _ := daemon.New(cfg, newSchedule(t), newFakeRunner(), nil, daemon.WithClock(clock.clock()))
	second, _ := daemon.New(cfg, newSchedule(t), newFakeRunner(), nil, daemon.WithClock(clock.clock()))

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()
	if err := second.Start(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestLoopRunsSlotWhenTimerFires(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newManualClock(time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC))
	runner := newFakeRunner()
	var observed []time.Time
	var mu sync.Mutex
	d, _ := daemon.New(cfg, newSchedule(t), runner, nil,
		daemon.WithClock(clock.clock()),
		daemon.WithNextObserver(func(at time.Time) {
			mu.Lock()
			observed = append(observed, at)
			mu.Unlock()
		}),
	)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if wait := waitFor(t, clock.waits); wait != 90*time.Minute {
		t.Fatalf("expected 90m wait, got %v", wait)
	}
	clock.fires <- clock.now
	if slot := waitFor(t, runner.ran); slot != "07:30" {
		t.Fatalf("expected 07:30 to run, got %s", slot)
	}
	waitFor(t, clock.waits)

	mu.Lock()
	defer mu.Unlock()
	if len(observed) < 1 || !observed[0].Equal(time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next observations %v", observed)
	}
}

func TestStartCatchesUpMissedSlotAndPrunes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Schedule.CatchupWindowMinutes = 30
	cfg.Schedule.HistoryDays = 7
	clock := newManualClock(time.Date(2026, 3, 14, 7, 40, 0, 0, time.UTC))
	runner := newFakeRunner()
	pruner := &fakePruner{}
	d, _ := daemon.New(cfg, newSchedule(t), runner, nil,
		daemon.WithClock(clock.clock()),
		daemon.WithPruner(pruner),
	)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if slot := waitFor(t, runner.ran); slot != "07:30" {
		t.Fatalf("expected catch-up of 07:30, got %s", slot)
	}
	waitFor(t, clock.waits)
	if pruner.cutoff != "2026-03-07" {
		t.Fatalf("unexpected prune cutoff %q", pruner.cutoff)
	}
}

func TestTriggerNowForcesCurrentSlot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newManualClock(time.Date(2026, 3, 14, 12, 5, 0, 0, time.UTC))
	runner := newFakeRunner()
	d, _ := daemon.New(cfg, newSchedule(t), runner, nil, daemon.WithClock(clock.clock()))

	if _, err := d.TriggerNow(context.Background()); !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning before start, got %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()
	waitFor(t, clock.waits)

	slot, err := d.TriggerNow(context.Background())
	if err != nil {
		t.Fatalf("TriggerNow: %v", err)
	}
	if slot.String() != "12:05" {
		t.Fatalf("unexpected slot %s", slot)
	}
	waitFor(t, runner.ran)
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.force) != 1 || !runner.force[0] {
		t.Fatalf("expected forced run, got %v", runner.force)
	}
}

func TestStopCancelsTriggeredRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clock := newManualClock(time.Date(2026, 3, 14, 12, 5, 0, 0, time.UTC))
	runner := &blockingRunner{started: make(chan struct{}, 1), ended: make(chan error, 1)}
	d, _ := daemon.New(cfg, newSchedule(t), runner, nil, daemon.WithClock(clock.clock()))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, clock.waits)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	if _, err := d.TriggerNow(reqCtx); err != nil {
		t.Fatalf("TriggerNow: %v", err)
	}
	cancelReq()
	waitFor(t, runner.started)
	select {
	case err := <-runner.ended:
		t.Fatalf("triggered run ended with the request context: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()
	if err := waitFor(t, runner.ended); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected triggered run to be cancelled, got %v", err)
	}
	waitFor(t, stopped)

	if _, err := d.TriggerNow(context.Background()); !errors.Is(err, daemon.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning after stop, got %v", err)
	}
}
