package content_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"testing"

	"breathein/internal/config"
	"breathein/internal/content"
	"breathein/internal/logging"
	"breathein/internal/schedule"
	"breathein/internal/services/llm"
	"breathein/internal/usage"
)

type stubCompleter struct {
	text  string
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _ llm.Request) (llm.Completion, error) {
	s.calls++
	if s.err != nil {
		return llm.Completion{}, s.err
	}
	return llm.Completion{
		Text:  s.text,
		Model: "gpt-3.5-turbo",
		Usage: llm.Usage{PromptTokens: 120, CompletionTokens: 30},
	}, nil
}

func (s *stubCompleter) Model() string { return "gpt-3.5-turbo" }

func newWriter(t *testing.T, completer content.Completer) (*content.Writer, *usage.Tracker) {
	t.Helper()
	tracker := usage.NewTracker(filepath.Join(t.TempDir(), "token_usage.json"), usage.PriceTableFromConfig(config.DefaultPricing()), logging.NewNop())
	w := content.NewWriter(completer, tracker, logging.NewNop(), content.Options{MaxTokens: 100, Temperature: 0.7}, rand.New(rand.NewPCG(1, 2)))
	return w, tracker
}

func TestNotificationCleansReplyAndRecordsUsage(t *testing.T) {
	stub := &stubCompleter{text: "Here are some options:\n\"Streak broken: 3h scrolled 🔥 Achievement: nothing.\"\nsecond option"}
	w, tracker := newWriter(t, stub)

	got := w.Notification(context.Background())
	if got != "Streak broken: 3h scrolled  Achievement: nothing." {
		t.Fatalf("unexpected notification %q", got)
	}
	session := tracker.Session()
	if session.CallsCount != 1 || session.Calls[0].Operation != content.OpNotification {
		t.Fatalf("expected one notification call recorded, got %+v", session)
	}
	if session.Calls[0].PromptTokens != 120 || session.Calls[0].TotalTokens != 150 {
		t.Fatalf("unexpected token accounting %+v", session.Calls[0])
	}
}

func TestNotificationFallbacks(t *testing.T) {
	cases := []struct {
		name string
		stub *stubCompleter
	}{
		{name: "error", stub: &stubCompleter{err: errors.New("llm request: http 500")}},
		{name: "too short", stub: &stubCompleter{text: "\"ok!!\""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := newWriter(t, tc.stub)
			if got := w.Notification(context.Background()); got != content.FallbackNotification {
				t.Fatalf("expected fallback, got %q", got)
			}
		})
	}

	w := content.NewWriter(nil, nil, nil, content.Options{}, nil)
	if got := w.Notification(context.Background()); got != content.FallbackNotification {
		t.Fatalf("nil completer should fall back, got %q", got)
	}
}

func TestTitle(t *testing.T) {
	w, tracker := newWriter(t, &stubCompleter{text: "\"Success Habits!\"\n'Be the one ✅'"})
	if got := w.Title(context.Background()); got != "Success Habits!\nBe the one ✅" {
		t.Fatalf("unexpected title %q", got)
	}
	if tracker.Session().Calls[0].Operation != content.OpTitle {
		t.Fatal("expected title usage to be recorded")
	}

	w, _ = newWriter(t, &stubCompleter{text: "only one line"})
	got := w.Title(context.Background())
	lines := strings.Split(got, "\n")
	if len(lines) != 2 || lines[0] == "" || lines[1] == "" {
		t.Fatalf("expected two-line fallback title, got %q", got)
	}
}

func TestCleanNotificationStripsSymbols(t *testing.T) {
	got := content.CleanNotification("“Level up” — you scrolled 2h ✨")
	if strings.ContainsAny(got, "“”—✨") {
		t.Fatalf("expected symbols removed, got %q", got)
	}
	if !strings.Contains(got, "Level up") {
		t.Fatalf("expected words kept, got %q", got)
	}
}

func TestDescriptionPeriods(t *testing.T) {
	cases := map[string]string{
		"07:30": "#MorningMotivation",
		"12:29": "#MiddayMotivation",
		"19:00": "#EveningMotivation",
		"10:59": "#MorningMotivation",
		"17:00": "#EveningMotivation",
	}
	for clock, tag := range cases {
		slot, err := schedule.ParseSlot(clock)
		if err != nil {
			t.Fatalf("ParseSlot(%s): %v", clock, err)
		}
		desc := content.Description(slot)
		if !strings.HasSuffix(desc, content.BaseHashtags+" "+tag) {
			t.Fatalf("%s: expected suffix %s, got %q", clock, tag, desc)
		}
	}
}

func TestPOVCaption(t *testing.T) {
	w, _ := newWriter(t, nil)
	if !strings.HasPrefix(w.POVCaption(), "POV: ") {
		t.Fatal("expected POV caption")
	}
}
