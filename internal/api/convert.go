package api

import (
	"strings"

	"breathein/internal/daemon"
	"breathein/internal/preflight"
	"breathein/internal/uploadlog"
	"breathein/internal/workflow"
)

// FromDaemonStatus converts the daemon's runtime view into its DTO.
func FromDaemonStatus(s daemon.Status) DaemonStatus {
	out := DaemonStatus{
		Running:       s.Running,
		PID:           s.PID,
		NextSlot:      s.Next.Slot.String(),
		StatusLine:    s.StatusLine,
		Slots:         append([]string(nil), s.Slots...),
		LockPath:      s.LockPath,
		SlotDBPath:    s.SlotDBPath,
		UploadLogPath: s.UploadLogPath,
	}
	if !s.Next.At.IsZero() {
		out.NextAt = s.Next.At.Format(dateTimeFormat)
	}
	if s.LastAttempt != nil {
		attempt := FromAttempt(*s.LastAttempt)
		out.LastAttempt = &attempt
	}
	return out
}

// FromAttempt converts a finished workflow attempt.
func FromAttempt(a workflow.Attempt) Attempt {
	out := Attempt{
		ID:      a.ID,
		Slot:    a.Slot,
		Status:  string(a.Entry.Status),
		Title:   a.Entry.Title,
		VideoID: a.Entry.YouTubeVideoID,
		URL:     a.Entry.YouTubeURL,
		Error:   a.Entry.ErrorMessage,
		Skipped: a.Skipped,
	}
	if a.Skipped {
		out.Status = "skipped"
	}
	if !a.Started.IsZero() {
		out.Time = a.Started.Format(dateTimeFormat)
		if a.Finished.After(a.Started) {
			out.DurationMS = a.Finished.Sub(a.Started).Milliseconds()
		}
	}
	return out
}

// FromEntry converts a persisted upload-log row. Its timestamp is kept in the
// log's own layout.
func FromEntry(e uploadlog.Entry) Attempt {
	return Attempt{
		Slot:    e.Slot,
		Status:  string(e.Status),
		Time:    e.Timestamp,
		Title:   e.Title,
		VideoID: e.YouTubeVideoID,
		URL:     e.YouTubeURL,
		Error:   e.ErrorMessage,
	}
}

// FromPreflight converts requirements-check results. Failed optional checks
// are warnings; failed required checks are errors.
func FromPreflight(results []preflight.Result) []Check {
	checks := make([]Check, 0, len(results))
	for _, r := range results {
		severity := "ok"
		if !r.Passed {
			severity = "error"
			if r.Optional {
				severity = "warn"
			}
		}
		checks = append(checks, Check{
			Name:     r.Name,
			Passed:   r.Passed,
			Optional: r.Optional,
			Detail:   strings.TrimSpace(r.Detail),
			Severity: severity,
		})
	}
	return checks
}
