// Package engine normalizes fetch engines behind one outcome-typed boundary.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"
)

// Adapter wraps a raw FetchEngine and classifies every result into exactly
// one outcome kind. It also bounds each attempt with its own timeout so one
// stuck fetch cannot stall the orchestrator's retry loop.
type Adapter struct {
	engine  insight.FetchEngine
	timeout time.Duration
	logger  *zap.Logger
}

// NewAdapter constructs an Adapter. A non-positive timeout defaults to 15s.
func NewAdapter(eng insight.FetchEngine, timeout time.Duration, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Adapter{engine: eng, timeout: timeout, logger: logger}
}

// Fetch performs one attempt and returns its normalized outcome.
func (a *Adapter) Fetch(ctx context.Context, url string, credential string) insight.Outcome {
	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	content, err := a.engine.Fetch(fetchCtx, url, credential)
	outcome := Classify(content, err)
	metrics.ObserveFetchAttempt(string(outcome.Kind))
	if outcome.Kind != insight.OutcomeSuccess {
		a.logger.Debug("fetch attempt failed",
			zap.String("url", url),
			zap.String("outcome", string(outcome.Kind)),
			zap.Error(err),
		)
	}
	return outcome
}

// Classify maps a raw engine result onto the outcome taxonomy. Engine
// unavailability is checked before auth rejection: a missing execution
// dependency must never be mistaken for a bad credential, or the breaker
// would burn through the whole pool for an environment fault.
func Classify(content insight.NoteContent, err error) insight.Outcome {
	switch {
	case err == nil:
		return insight.Outcome{Kind: insight.OutcomeSuccess, Content: content}
	case errors.Is(err, insight.ErrEngineUnavailable):
		return insight.Outcome{Kind: insight.OutcomeEngineUnavailable, Detail: err.Error(), Err: err}
	case errors.Is(err, insight.ErrAuthRejected):
		return insight.Outcome{Kind: insight.OutcomeAuthFailure, Detail: err.Error(), Err: err}
	default:
		// Timeouts, network faults, parse failures.
		return insight.Outcome{Kind: insight.OutcomeOtherFailure, Detail: err.Error(), Err: err}
	}
}
