// Package logging provides the structured logger the core packages log
// through. It never configures global logging state itself — that is an
// external-layer concern (cmd/warcat's responsibility) — it only exposes
// an injectable default, grounded on the log.Debug(...) calls in
// nlnwa/gowarc's warcreader.go/unmarshaler.go.
package logging

import "github.com/sirupsen/logrus"

// Logger is the subset of *logrus.Logger the core packages call through.
// Passing a *logrus.Entry also satisfies this (via its own Debug/Debugf
// methods), so callers can attach fields before injecting it.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
}

var std Logger = logrus.StandardLogger()

// Default returns the package-wide default Logger, logrus's standard
// logger until SetDefault overrides it.
func Default() Logger {
	return std
}

// SetDefault replaces the package-wide default Logger. Core packages call
// Default() at the point of use rather than caching it, so SetDefault
// takes effect immediately for calls made after it returns.
func SetDefault(l Logger) {
	std = l
}
