// Package daemonrun is the foreground process behind `breathein start`: it
// gates on the requirements check, sets up logging, the pid file, the
// workflow, the scheduler loop, and the IPC and metrics listeners, then blocks
// until a signal or an IPC stop.
package daemonrun
