// Command breathein renders motivational Shorts, uploads them to YouTube on a
// daily schedule, and reports upload history and LLM token spend.
//
// `breathein start` runs the scheduler in the foreground; the other commands
// either talk to it over the control socket or act on the data files
// directly, so `log`, `stats` and `usage` work whether or not it is running.
package main
