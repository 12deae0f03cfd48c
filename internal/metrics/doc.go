// Package metrics exports scheduler counters to Prometheus and serves the
// small HTTP surface (/metrics, /healthz, /v1/status) bound to metrics.bind.
//
// Registry implements workflow.Observer, so attempt outcomes, render times and
// priced LLM calls flow into it without the workflow importing Prometheus.
package metrics
