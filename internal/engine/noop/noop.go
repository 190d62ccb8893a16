// Package noop provides a fetch engine that is permanently unavailable. It is
// the default in environments without a JS runtime or browser, where every
// request should resolve through the fallback path.
package noop

import (
	"context"
	"fmt"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// Engine implements insight.FetchEngine.
type Engine struct{}

// New returns a noop engine.
func New() *Engine {
	return &Engine{}
}

// Fetch always reports the engine as unavailable.
func (e *Engine) Fetch(_ context.Context, _ string, _ string) (insight.NoteContent, error) {
	return insight.NoteContent{}, fmt.Errorf("noop engine: %w", insight.ErrEngineUnavailable)
}
