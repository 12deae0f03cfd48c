package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"breathein/internal/api"
	"breathein/internal/config"
	"breathein/internal/ipc"
	"breathein/internal/preflight"
	"breathein/internal/schedule"
	"breathein/internal/uploadlog"
)

// ErrDaemonNotRunning indicates scheduler IPC is unavailable.
var ErrDaemonNotRunning = errors.New("scheduler not running")

// StopResult captures scheduler stop/termination outcome.
type StopResult struct {
	StopAcknowledged bool
	ForcedKill       bool
	PID              int
}

// Snapshot is everything `breathein status` renders.
type Snapshot struct {
	Daemon api.DaemonStatus `json:"daemon"`
	Checks []api.Check      `json:"checks"`
}

// WaitForShutdown waits for scheduler IPC to disappear or report not-running.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			if isDaemonUnavailable(err) {
				return nil
			}
			lastErr = err
			time.Sleep(200 * time.Millisecond)
			continue
		}
		status, statusErr := client.Status()
		_ = client.Close()
		if statusErr == nil && !status.Running {
			return nil
		}
		if statusErr != nil {
			lastErr = statusErr
		} else {
			lastErr = fmt.Errorf("scheduler still running")
		}
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for shutdown")
	}
	return fmt.Errorf("scheduler did not stop: %w", lastErr)
}

// ProcessInfo returns whether scheduler IPC is reachable and its PID when
// available.
func ProcessInfo(socketPath string) (bool, int, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	defer client.Close()
	status, statusErr := client.Status()
	if statusErr != nil {
		return true, 0, statusErr
	}
	return true, status.PID, nil
}

// ReadPID reads the pid file written by `breathein start`.
func ReadPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %q", pidPath)
	}
	return pid, nil
}

// ForceKillProcess sends SIGKILL to the scheduler and cleans the pid file.
func ForceKillProcess(pidPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	if parsed, err := ReadPID(pidPath); err == nil {
		pid = parsed
	} else if !errors.Is(err, os.ErrNotExist) && pid <= 0 {
		return 0, fmt.Errorf("read scheduler pid file %q: %w", pidPath, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("unable to determine scheduler pid (pid file: %s)", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("locate scheduler process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return 0, fmt.Errorf("kill scheduler process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("remove pid file %q: %w", pidPath, err)
	}
	return pid, nil
}

// StopAndTerminate requests a stop over IPC and kills the process by pid file
// if it is still alive after gracePeriod.
func StopAndTerminate(cfg *config.Config, socketPath string, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isDaemonUnavailable(err) {
			return StopResult{}, ErrDaemonNotRunning
		}
		return StopResult{}, err
	}
	pid := 0
	if status, statusErr := client.Status(); statusErr == nil && status != nil {
		pid = status.PID
	}
	resp, err := client.Stop()
	_ = client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid, StopAcknowledged: resp != nil && resp.Stopped}

	_ = WaitForShutdown(socketPath, gracePeriod)
	alive, livePID, aliveErr := ProcessInfo(socketPath)
	if aliveErr != nil || !alive {
		return result, nil
	}
	if livePID == 0 {
		livePID = pid
	}
	killedPID, killErr := ForceKillProcess(cfg.PIDPath(), livePID)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop scheduler process: %w", killErr)
	}
	_ = os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// BuildStatusSnapshot asks a running scheduler for its status. When none
// answers it computes the next slot locally and reads the last upload-log
// row.
func BuildStatusSnapshot(ctx context.Context, socketPath string, cfg *config.Config, opts preflight.Options) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{}

	if client, err := ipc.Dial(socketPath); err == nil {
		resp, statusErr := client.Status()
		_ = client.Close()
		if statusErr == nil && resp != nil {
			snap.Daemon = *resp
		}
	}

	if !snap.Daemon.Running {
		offline, err := OfflineStatus(cfg, time.Now())
		if err != nil {
			return nil, err
		}
		snap.Daemon = offline
	}

	snap.Checks = api.FromPreflight(preflight.RunAll(ctx, cfg, opts))
	return snap, nil
}

// OfflineStatus derives status without a running scheduler.
func OfflineStatus(cfg *config.Config, now time.Time) (api.DaemonStatus, error) {
	sched, err := schedule.New(cfg.Schedule.Slots, cfg.Location())
	if err != nil {
		return api.DaemonStatus{}, fmt.Errorf("schedule: %w", err)
	}
	next := sched.Next(now)
	status := api.DaemonStatus{
		NextSlot:      next.Slot.String(),
		NextAt:        next.At.Format(time.RFC3339),
		StatusLine:    sched.StatusLine(now),
		Slots:         sched.Strings(),
		LockPath:      cfg.DaemonLockPath(),
		SlotDBPath:    cfg.SlotDBPath(),
		UploadLogPath: cfg.UploadLogPath(),
	}
	last, ok, err := uploadlog.New(cfg.UploadLogPath()).Last()
	if err != nil {
		return status, fmt.Errorf("read upload log: %w", err)
	}
	if ok {
		attempt := api.FromEntry(last)
		status.LastAttempt = &attempt
	}
	return status, nil
}

func isDaemonUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
