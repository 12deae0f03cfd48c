// Package llm provides a minimal client for OpenAI-compatible chat completion
// endpoints.
//
// Complete sends one prompt and returns the reply text together with the
// token usage the endpoint reports, which callers feed into the usage
// tracker. Requests are single-shot: a failed call returns its error and the
// caller decides on a fallback. HealthCheck backs the preflight LLM probe.
package llm
