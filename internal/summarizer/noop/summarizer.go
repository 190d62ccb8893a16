// Package noop provides a summarizer that returns an empty summary. Used when
// no API key is configured.
package noop

import "context"

// Summarizer implements insight.Summarizer without calling anything.
type Summarizer struct{}

// New returns a noop summarizer.
func New() *Summarizer {
	return &Summarizer{}
}

// Summarize returns an empty summary.
func (s *Summarizer) Summarize(_ context.Context, _ string, _ string, _ []string) (string, error) {
	return "", nil
}
