// Package glog provides the structured logger shared across the pipeline.
// Every component logs through a *logrus.Entry carried in its constructor
// rather than the global log package, so a run's fields (run_id, cycle,
// worker) stay attached without plumbing a context.Context through purely
// numeric hot paths.
package glog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns the base logger for a pipeline run. Output defaults to
// os.Stderr in text format; an embedder wanting JSON logs or a different
// sink can call SetFormatter/SetOutput on the returned entry's Logger.
func New() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return logrus.NewEntry(l)
}

// Discard returns a logger with its output suppressed, for tests that
// don't want pipeline log noise but still want every log call site to be
// exercised.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(discardWriter{})
	return logrus.NewEntry(l)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
