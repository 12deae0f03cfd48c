// Package daemon runs the upload scheduler as a long-lived process.
//
// A Daemon holds a flock-based single-instance lock, prunes old slot
// completions, catches up on slots missed within the configured window, and
// then sleeps until each upcoming slot before handing it to the workflow
// Runner. Runs are strictly sequential. The clock is injectable so tests can
// drive the loop without waiting on wall time.
//
// Keep orchestration here: rendering and uploading belong to workflow, and
// the control surfaces (ipc, metrics) only read Status or call TriggerNow.
package daemon
