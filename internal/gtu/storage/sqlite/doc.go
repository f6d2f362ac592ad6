// Package sqlite persists GTU runs in a SQLite database.
//
// A run groups the results of one invocation: its configuration, the
// tracks found per event and, optionally, the normalized tracklet dump of
// every sector/stack. The schema is managed by golang-migrate with the
// migrations embedded in this package.
package sqlite
