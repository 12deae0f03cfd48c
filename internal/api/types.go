package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Attempt describes one upload attempt.
type Attempt struct {
	ID         string `json:"id,omitempty"`
	Slot       string `json:"slot"`
	Status     string `json:"status"`
	Time       string `json:"time,omitempty"`
	Title      string `json:"title,omitempty"`
	VideoID    string `json:"videoId,omitempty"`
	URL        string `json:"url,omitempty"`
	Error      string `json:"error,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	DurationMS int64  `json:"durationMs,omitempty"`
}

// DaemonStatus captures scheduler runtime state.
type DaemonStatus struct {
	Running       bool     `json:"running"`
	PID           int      `json:"pid"`
	NextSlot      string   `json:"nextSlot"`
	NextAt        string   `json:"nextAt,omitempty"`
	StatusLine    string   `json:"statusLine"`
	Slots         []string `json:"slots"`
	LastAttempt   *Attempt `json:"lastAttempt,omitempty"`
	LockPath      string   `json:"lockPath"`
	SlotDBPath    string   `json:"slotDbPath"`
	UploadLogPath string   `json:"uploadLogPath"`
}

// Check is one requirements-check line.
type Check struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Severity string `json:"severity"`
}
