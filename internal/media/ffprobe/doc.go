// Package ffprobe runs ffprobe and exposes the duration and size of a
// rendered clip for the upload log.
package ffprobe
