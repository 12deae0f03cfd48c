// Package daemonctl holds the process-level helpers the CLI uses to talk to a
// running scheduler: stopping it (with a pid-file kill fallback), waiting for
// shutdown, and assembling the status snapshot with an offline fallback.
package daemonctl
