// Package orchestrator coordinates credential selection, fetch attempts, and
// failure accounting for a single note request.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"
)

// DefaultMaxAttempts bounds pooled fetch retries per request.
const DefaultMaxAttempts = 3

// OwnerLimiter throttles fetch attempts per owner.
type OwnerLimiter interface {
	Wait(ctx context.Context, ownerID string) error
}

// Config tunes the orchestrator.
type Config struct {
	MaxAttempts int
}

// Orchestrator runs the bounded retry loop. It is safe for concurrent use.
type Orchestrator struct {
	cfg      Config
	selector insight.CredentialSelector
	fetcher  insight.OutcomeFetcher
	breaker  insight.CircuitBreaker
	fallback insight.FallbackGenerator
	limiter  OwnerLimiter
	logger   *zap.Logger
}

// New constructs an Orchestrator. MaxAttempts defaults to 3 when unset.
func New(
	cfg Config,
	selector insight.CredentialSelector,
	fetcher insight.OutcomeFetcher,
	breaker insight.CircuitBreaker,
	fallback insight.FallbackGenerator,
	limiter OwnerLimiter,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Orchestrator{
		cfg:      cfg,
		selector: selector,
		fetcher:  fetcher,
		breaker:  breaker,
		fallback: fallback,
		limiter:  limiter,
		logger:   logger,
	}
}

// FetchFor resolves one note request. When credential is non-empty the fetch
// runs once with exactly that credential and never touches pool state;
// otherwise credentials are drawn from the owner's pool with at most
// MaxAttempts tries, rotating past auth failures.
func (o *Orchestrator) FetchFor(ctx context.Context, ownerID string, url string, credential string) (insight.NoteContent, error) {
	if credential != "" {
		return o.fetchDirect(ctx, url, credential)
	}
	return o.fetchPooled(ctx, ownerID, url)
}

// fetchDirect performs the single caller-supplied-credential attempt. Nothing
// is recorded against the pool: the credential is not ours to retire.
func (o *Orchestrator) fetchDirect(ctx context.Context, url string, credential string) (insight.NoteContent, error) {
	outcome := o.fetcher.Fetch(ctx, url, credential)
	switch outcome.Kind {
	case insight.OutcomeSuccess:
		return outcome.Content, nil
	case insight.OutcomeEngineUnavailable:
		return o.serveFallback(url, "direct"), nil
	case insight.OutcomeAuthFailure:
		return insight.NoteContent{}, fmt.Errorf("supplied credential rejected: %w", insight.ErrAuthRejected)
	default:
		return insight.NoteContent{}, fmt.Errorf("fetch failed: %w", outcome.Err)
	}
}

func (o *Orchestrator) fetchPooled(ctx context.Context, ownerID string, url string) (insight.NoteContent, error) {
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx, ownerID); err != nil {
				return insight.NoteContent{}, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		cred, err := o.selector.Select(ctx, ownerID)
		if err != nil {
			// Pool exhaustion is terminal regardless of remaining attempts.
			return insight.NoteContent{}, err
		}

		outcome := o.fetcher.Fetch(ctx, url, cred.Value)
		if err := o.breaker.OnOutcome(ctx, cred.ID, outcome.Kind); err != nil {
			o.logger.Error("record fetch outcome",
				zap.String("credential_id", cred.ID),
				zap.String("outcome", string(outcome.Kind)),
				zap.Error(err),
			)
		}

		switch outcome.Kind {
		case insight.OutcomeSuccess:
			return outcome.Content, nil
		case insight.OutcomeEngineUnavailable:
			return o.serveFallback(url, ownerID), nil
		case insight.OutcomeAuthFailure:
			o.logger.Info("credential rejected, rotating",
				zap.String("owner_id", ownerID),
				zap.String("credential_id", cred.ID),
				zap.Int("attempt", attempt),
			)
			continue
		default:
			// Transient faults are returned to the caller; retrying with a
			// fresh credential would not change a network or parse error.
			return insight.NoteContent{}, fmt.Errorf("fetch failed: %w", outcome.Err)
		}
	}
	return insight.NoteContent{}, insight.ErrRetriesExhausted
}

func (o *Orchestrator) serveFallback(url string, ownerID string) insight.NoteContent {
	metrics.ObserveFallbackServed()
	o.logger.Warn("fetch engine unavailable, serving fallback",
		zap.String("owner_id", ownerID),
		zap.String("url", url),
	)
	return o.fallback.Generate(url)
}
