// Package content writes the words around each video: the lock-screen
// notification and the two-line title (both model generated, with fixed
// fallbacks), the POV caption, and the per-slot upload description.
//
// Model failures are logged and replaced by fallbacks; they never abort an
// upload attempt. Successful calls are priced through the usage tracker.
package content
