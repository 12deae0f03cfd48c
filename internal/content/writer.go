package content

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"breathein/internal/logging"
	"breathein/internal/services/llm"
	"breathein/internal/usage"
)

// Operation labels recorded in the usage file.
const (
	OpNotification = "Notification Generation"
	OpTitle        = "Title Generation"
)

// FallbackNotification is used whenever the model reply is unusable.
const FallbackNotification = "2 hours lost scrolling. Elon Musk made millions. You unlocked: regret."

const notificationPrompt = "Write a single short push-notification text mocking endless scrolling. " +
	"Style: achievement unlocked / streak / gaming reward tone. " +
	"It should highlight wasted hours scrolling with a clever, realistic twist " +
	"about regret, lost time, or missed success. Keep it motivating and realistic. " +
	"Example: 'Elon Musk made millions while you scrolled 2h, unlocked: regret!'. " +
	"Keep it under 100 characters. " +
	"Do not use any emojis in the output. " +
	"Do not explain, list, or say 'here are options'. " +
	"Output only one notification text, nothing else."

const titlePrompt = "Generate two short motivational phrases for a YouTube Shorts title. " +
	"Format: First line should be about success habits or achievement, " +
	"second line should be 'Be the one [action]' or 'Achieve [goal]'. " +
	"Keep each line under 20 characters. " +
	"Examples: 'Success Habits!' and 'Be the one ✅' or 'Achieve ✅'. " +
	"Output only the two lines separated by a newline, nothing else."

const minNotificationLen = 10

var disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?\-:;()]`)

var fallbackTitles = [][2]string{
	{"Success Habits!", "Be the one ✅"},
	{"Achieve More!", "Be the one ✅"},
	{"Win Today!", "Achieve ✅"},
	{"Success Mindset!", "Be the one ✅"},
	{"Level Up!", "Achieve ✅"},
}

var povCaptions = []string{
	"POV: A notification changes your entire life trajectory",
	"POV: Duolingo has finally a worthy opponent",
	"POV: You were scrolling hopelessly and then your phone hits you",
}

// Completer is the subset of the llm client the writer needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (llm.Completion, error)
	Model() string
}

// Recorder prices and persists token usage.
type Recorder interface {
	Record(operation, model string, tokens usage.Tokens) (usage.Call, error)
}

// Options tunes generation requests.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Writer produces the text that goes on and around each video.
type Writer struct {
	llm    Completer
	usage  Recorder
	logger *slog.Logger
	opts   Options

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWriter builds a writer. A nil completer makes every generator return
// its fallback; a nil recorder skips usage tracking.
func NewWriter(completer Completer, recorder Recorder, logger *slog.Logger, opts Options, rng *rand.Rand) *Writer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Writer{
		llm:    completer,
		usage:  recorder,
		logger: logging.NewComponentLogger(logger, "content"),
		opts:   opts,
		rng:    rng,
	}
}

// Notification asks the model for one lock-screen notification line.
func (w *Writer) Notification(ctx context.Context) string {
	text, ok := w.complete(ctx, OpNotification, notificationPrompt)
	if !ok {
		return FallbackNotification
	}
	cleaned := CleanNotification(text)
	if len([]rune(cleaned)) < minNotificationLen {
		w.logger.Info("notification reply too short; using fallback", logging.String("reply", text))
		return FallbackNotification
	}
	return cleaned
}

// CleanNotification strips list preambles, extra lines, wrapping quotes and
// characters the overlay font cannot render.
func CleanNotification(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(text), "here are") {
		if _, rest, ok := strings.Cut(text, ":"); ok {
			text = strings.TrimSpace(rest)
		}
	}
	if first, _, ok := strings.Cut(text, "\n"); ok {
		text = strings.TrimSpace(first)
	}
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = text[1 : len(text)-1]
	}
	text = norm.NFKC.String(text)
	return strings.TrimSpace(disallowedChars.ReplaceAllString(text, ""))
}

// Title returns a two-line title joined by a newline.
func (w *Writer) Title(ctx context.Context) string {
	text, ok := w.complete(ctx, OpTitle, titlePrompt)
	if ok {
		if title, valid := parseTitle(text); valid {
			return title
		}
		w.logger.Info("title reply not two lines; using fallback", logging.String("reply", text))
	}
	w.mu.Lock()
	pair := fallbackTitles[w.rng.IntN(len(fallbackTitles))]
	w.mu.Unlock()
	return pair[0] + "\n" + pair[1]
}

func parseTitle(text string) (string, bool) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return "", false
	}
	strip := strings.NewReplacer(`"`, "", "'", "")
	first := strings.TrimSpace(strip.Replace(lines[0]))
	second := strings.TrimSpace(strip.Replace(lines[1]))
	if first == "" || second == "" {
		return "", false
	}
	return first + "\n" + second, true
}

// POVCaption picks the caption shown in the top band.
func (w *Writer) POVCaption() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return povCaptions[w.rng.IntN(len(povCaptions))]
}

func (w *Writer) complete(ctx context.Context, operation, prompt string) (string, bool) {
	if w.llm == nil {
		return "", false
	}
	completion, err := w.llm.Complete(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   w.opts.MaxTokens,
		Temperature: w.opts.Temperature,
	})
	if err != nil {
		logging.WarnWithContext(w.logger, "text generation failed; using fallback", "content_generation_failed",
			logging.String("operation", operation),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check llm.api_key and network access"),
			logging.String(logging.FieldImpact, "video uses fallback text"),
		)
		return "", false
	}
	if w.usage != nil {
		model := completion.Model
		if model == "" {
			model = w.llm.Model()
		}
		_, err := w.usage.Record(operation, model, usage.Tokens{
			Prompt:     completion.Usage.PromptTokens,
			Completion: completion.Usage.CompletionTokens,
			Total:      completion.Usage.TotalTokens,
		})
		if err != nil {
			logging.WarnWithContext(w.logger, "usage record failed", "usage_record_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "token usage file may be stale"),
			)
		}
	}
	return completion.Text, true
}
