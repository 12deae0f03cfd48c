package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"breathein/internal/logging"
)

// Tokens is the accounting reported for one call.
type Tokens struct {
	Prompt     int
	Completion int
	Total      int
}

// Call is one priced generative-API call. Calls are append-only.
type Call struct {
	Timestamp        Timestamp `json:"timestamp"`
	Operation        string    `json:"operation"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	InputCost        float64   `json:"input_cost"`
	OutputCost       float64   `json:"output_cost"`
	CallCost         float64   `json:"call_cost"`
}

// Session is the persisted aggregate written to token_usage.json.
type Session struct {
	TotalPromptTokens     int       `json:"total_prompt_tokens"`
	TotalCompletionTokens int       `json:"total_completion_tokens"`
	TotalTokens           int       `json:"total_tokens"`
	TotalCost             float64   `json:"total_cost"`
	CallsCount            int       `json:"calls_count"`
	StartTime             Timestamp `json:"start_time"`
	LastUpdated           Timestamp `json:"last_updated,omitzero"`
	Calls                 []Call    `json:"calls"`
}

// anchor resolves zone-less timestamps against loc.
func (s *Session) anchor(loc *time.Location) {
	s.StartTime.anchor(loc)
	s.LastUpdated.anchor(loc)
	for i := range s.Calls {
		s.Calls[i].Timestamp.anchor(loc)
	}
}

// ErrCorrupt marks a usage file that exists but cannot be decoded.
var ErrCorrupt = errors.New("usage file is corrupt")

// Tracker prices calls and keeps the session file current.
type Tracker struct {
	path     string
	loc      *time.Location
	prices   PriceTable
	logger   *slog.Logger
	now      func() time.Time
	observer func(Call)

	mu      sync.Mutex
	session Session
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLocation sets the zone used for timestamps stored without one.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithObserver registers a callback invoked after every recorded call.
func WithObserver(fn func(Call)) Option {
	return func(t *Tracker) { t.observer = fn }
}

// NewTracker loads the session stored at path. A missing file starts a new
// session; a corrupt one is moved aside to <path>.corrupt-<timestamp> so the
// next write cannot overwrite it.
func NewTracker(path string, prices PriceTable, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		path:   path,
		prices: prices,
		loc:    time.Local,
		logger: logging.NewComponentLogger(logger, "usage"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	session, err := Load(path, t.loc)
	if err != nil {
		impact := "a fresh usage session starts; earlier totals are not carried over"
		if errors.Is(err, ErrCorrupt) {
			if backup, moveErr := t.quarantine(); moveErr != nil {
				err = errors.Join(err, moveErr)
			} else {
				impact = "a fresh usage session starts; the unreadable file was kept at " + backup
			}
		}
		logging.WarnWithContext(t.logger, "failed to load token usage file", "usage_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect or remove the file"),
			logging.String(logging.FieldImpact, impact),
		)
		session = Session{}
	}
	if session.StartTime.IsZero() {
		session.StartTime = At(t.now())
	}
	t.session = session
	return t
}

// quarantine renames the session file so a fresh session does not replace it.
func (t *Tracker) quarantine() (string, error) {
	backup := t.path + ".corrupt-" + t.now().Format("20060102T150405")
	if err := os.Rename(t.path, backup); err != nil {
		return "", fmt.Errorf("move corrupt usage file: %w", err)
	}
	return backup, nil
}

// Load reads a session file without taking ownership of it. A missing file
// yields an empty session. Timestamps stored without a zone are read in loc,
// or time.Local when loc is nil. Undecodable content wraps ErrCorrupt.
func Load(path string, loc *time.Location) (Session, error) {
	var session Session
	if strings.TrimSpace(path) == "" {
		return session, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return session, nil
		}
		return session, fmt.Errorf("read usage file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return session, nil
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("parse usage file: %w: %w", ErrCorrupt, err)
	}
	if loc == nil {
		loc = time.Local
	}
	session.anchor(loc)
	return session, nil
}

// Record prices a call, appends it to the session, and persists the file.
func (t *Tracker) Record(operation, model string, tokens Tokens) (Call, error) {
	if tokens.Total == 0 {
		tokens.Total = tokens.Prompt + tokens.Completion
	}
	pricing, ok := t.prices.Lookup(model)
	if !ok {
		logging.WarnWithContext(t.logger, "no price configured for model; recording zero cost", "usage_price_missing",
			logging.String("model", model),
			logging.String(logging.FieldErrorHint, "add a [pricing] entry for this model"),
			logging.String(logging.FieldImpact, "cost totals under-report spend"),
		)
	}
	cost := CalculateCost(pricing, tokens.Prompt, tokens.Completion)

	call := Call{
		Timestamp:        At(t.now()),
		Operation:        operation,
		Model:            model,
		PromptTokens:     tokens.Prompt,
		CompletionTokens: tokens.Completion,
		TotalTokens:      tokens.Total,
		InputCost:        cost.Input.InexactFloat64(),
		OutputCost:       cost.Output.InexactFloat64(),
		CallCost:         cost.Total.InexactFloat64(),
	}

	t.mu.Lock()
	s := &t.session
	s.TotalPromptTokens += call.PromptTokens
	s.TotalCompletionTokens += call.CompletionTokens
	s.TotalTokens += call.TotalTokens
	s.TotalCost = decimal.NewFromFloat(s.TotalCost).Add(cost.Total).Round(CostPlaces).InexactFloat64()
	s.CallsCount++
	s.Calls = append(s.Calls, call)
	sessionCost := s.TotalCost
	err := t.save()
	t.mu.Unlock()

	t.logger.Info("token usage recorded",
		logging.String("operation", operation),
		logging.String("model", model),
		logging.Int("prompt_tokens", call.PromptTokens),
		logging.Int("completion_tokens", call.CompletionTokens),
		logging.String("call_cost", cost.Total.StringFixed(CostPlaces)),
		logging.String("session_cost", decimal.NewFromFloat(sessionCost).StringFixed(CostPlaces)),
	)
	if t.observer != nil {
		t.observer(call)
	}
	if err != nil {
		return call, fmt.Errorf("persist usage: %w", err)
	}
	return call, nil
}

// Session returns a copy of the current session.
func (t *Tracker) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.session
	out.Calls = append([]Call(nil), t.session.Calls...)
	return out
}

// Reset discards all calls and starts a new session.
func (t *Tracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = Session{StartTime: At(t.now())}
	return t.save()
}

// save writes the session atomically. Callers hold mu.
func (t *Tracker) save() error {
	if t.path == "" {
		return nil
	}
	t.session.LastUpdated = At(t.now())
	if t.session.Calls == nil {
		t.session.Calls = []Call{}
	}
	data, err := json.MarshalIndent(t.session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal usage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create usage directory: %w", err)
	}
	tmpPath := t.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
