package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"breathein/internal/schedule"
	"breathein/internal/uploadlog"
	"breathein/internal/usage"
)

// ManualSlot is the slot label for attempts at a time that is not a
// configured slot (trigger, test-all, test-upload).
const ManualSlot = "manual"

// Registry owns the breathein collectors.
type Registry struct {
	reg   *prometheus.Registry
	slots map[string]struct{}

	attempts   *prometheus.CounterVec
	generation prometheus.Histogram
	llmCost    *prometheus.CounterVec
	llmTokens  *prometheus.CounterVec
	nextUpload prometheus.Gauge
}

// NewRegistry builds a registry with the breathein collectors plus the Go
// runtime and process collectors. slots are the configured HH:MM slots; any
// other slot is counted under ManualSlot.
func NewRegistry(slots ...string) *Registry {
	r := &Registry{
		reg:   prometheus.NewRegistry(),
		slots: make(map[string]struct{}, len(slots)),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breathein_upload_attempts_total",
			Help: "Upload attempts by slot and outcome.",
		}, []string{"slot", "status"}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "breathein_generation_seconds",
			Help:    "Wall time spent rendering one video.",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300},
		}),
		llmCost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breathein_llm_cost_usd_total",
			Help: "Priced LLM spend in USD by operation.",
		}, []string{"operation"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "breathein_llm_tokens_total",
			Help: "LLM tokens by operation and kind (prompt, completion).",
		}, []string{"operation", "kind"}),
		nextUpload: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "breathein_next_upload_timestamp_seconds",
			Help: "Unix time of the next scheduled upload.",
		}),
	}
	for _, value := range slots {
		if slot, err := schedule.ParseSlot(value); err == nil {
			r.slots[slot.String()] = struct{}{}
		}
	}
	r.reg.MustRegister(
		r.attempts,
		r.generation,
		r.llmCost,
		r.llmTokens,
		r.nextUpload,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Gatherer exposes the underlying registry for promhttp and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) AttemptFinished(slot string, status uploadlog.Status) {
	if _, ok := r.slots[slot]; !ok {
		slot = ManualSlot
	}
	r.attempts.WithLabelValues(slot, string(status)).Inc()
}

func (r *Registry) GenerationFinished(elapsed time.Duration) {
	if elapsed > 0 {
		r.generation.Observe(elapsed.Seconds())
	}
}

func (r *Registry) LLMCall(call usage.Call) {
	r.llmCost.WithLabelValues(call.Operation).Add(call.CallCost)
	r.llmTokens.WithLabelValues(call.Operation, "prompt").Add(float64(call.PromptTokens))
	r.llmTokens.WithLabelValues(call.Operation, "completion").Add(float64(call.CompletionTokens))
}

// NextUpload records when the scheduler will fire next.
func (r *Registry) NextUpload(at time.Time) {
	r.nextUpload.Set(float64(at.Unix()))
}
