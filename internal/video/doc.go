// Package video renders the lock-screen style short.
//
// A render picks a random background (and music clip when one exists),
// lays out the POV caption band, the "why not you?" overlay, a fake push
// notification card and bottom icons, then hands the whole frame to a single
// ffmpeg invocation. Text reaches ffmpeg through files so captions never need
// filter-graph escaping. Output lands in the configured directory as
// lockscreen_NNNN.mp4.
package video
