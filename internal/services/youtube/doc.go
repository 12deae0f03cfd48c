// Package youtube uploads rendered clips and posts the follow-up comment
// through the YouTube Data API.
//
// Authorization is a one-time installed-app consent flow (Authorize) that
// leaves a token file behind; token refresh is left to golang.org/x/oauth2,
// with refreshed tokens written back to the same file. Uploads are a single
// videos.insert with no retry.
package youtube
