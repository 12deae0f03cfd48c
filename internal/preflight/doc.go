// Package preflight implements the requirements check run before the
// scheduler starts and shown by `breathein status`.
//
// It covers the OAuth client secret and token, asset and output directories,
// the presence of at least one background image, the ffmpeg binaries, and the
// LLM key (optionally a live health request). Checks marked Optional only
// warn; Blocking reports the rest.
package preflight
