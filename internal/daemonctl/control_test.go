package daemonctl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"breathein/internal/preflight"
	"breathein/internal/testsupport"
	"breathein/internal/uploadlog"
)

func TestOfflineStatusReadsLastRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Schedule.Slots = []string{"08:00", "20:00"}
	cfg.Schedule.UTCOffset = "+00:00"
	cfg.Schedule.ZoneLabel = "UTC"

	log := uploadlog.New(cfg.UploadLogPath())
	entry := uploadlog.NewEntry(time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC), "08:00")
	entry.ErrorMessage = "quota exceeded"
	if err := log.Append(entry); err != nil {
		t.Fatalf("Append: %v", err)
	}

	status, err := OfflineStatus(cfg, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("OfflineStatus: %v", err)
	}
	if status.Running {
		t.Fatal("offline status must not report running")
	}
	if status.NextSlot != "20:00" || status.StatusLine != "Next upload in 11h 0m at 20:00 UTC" {
		t.Fatalf("unexpected next slot %+v", status)
	}
	if status.LastAttempt == nil || status.LastAttempt.Status != "failed" || status.LastAttempt.Error != "quota exceeded" {
		t.Fatalf("unexpected last attempt %+v", status.LastAttempt)
	}
}

func TestBuildStatusSnapshotWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	socket := filepath.Join(cfg.Paths.LogDir, "missing.sock")

	snap, err := BuildStatusSnapshot(context.Background(), socket, cfg, preflight.Options{})
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snap.Daemon.Running || snap.Daemon.NextSlot == "" {
		t.Fatalf("unexpected daemon status %+v", snap.Daemon)
	}
	if len(snap.Checks) == 0 {
		t.Fatal("expected requirements checks")
	}
}

func TestProcessInfoWithoutSocket(t *testing.T) {
	running, pid, err := ProcessInfo(filepath.Join(t.TempDir(), "none.sock"))
	if err != nil || running || pid != 0 {
		t.Fatalf("expected not running, got running=%v pid=%d err=%v", running, pid, err)
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := StopAndTerminate(cfg, filepath.Join(cfg.Paths.LogDir, "none.sock"), time.Second)
	if err != ErrDaemonNotRunning {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestForceKillRefusesCurrentProcess(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "breathein.pid")
	if err := os.WriteFile(pidPath, []byte("0\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := ForceKillProcess(pidPath, os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill own pid")
	}
}
