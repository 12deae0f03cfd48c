// Package workflow runs one upload attempt end to end.
//
// A Runner generates a clip, probes and hashes it, asks the content writer for
// a title, uploads through the YouTube client, and appends exactly one row to
// the upload log per attempt. A cross-process file lock keeps the daemon and
// manual CLI runs from uploading at the same time, and the slot store stops a
// slot from uploading twice on the same day. NewFromConfig assembles the
// production collaborators; tests build a Runner from fakes via New.
package workflow
