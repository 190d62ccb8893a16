package pool

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"
)

// DefaultInvalidateThreshold is the number of accumulated auth failures after
// which a credential is retired. Three strikes tolerates transient platform
// flakiness without burning a credential on a single bad response.
const DefaultInvalidateThreshold = 3

// Breaker translates fetch outcomes into credential health transitions.
type Breaker struct {
	store     insight.CredentialStore
	threshold int
	logger    *zap.Logger
}

// NewBreaker constructs a Breaker. A non-positive threshold falls back to the
// default three-strike policy.
func NewBreaker(store insight.CredentialStore, threshold int, logger *zap.Logger) *Breaker {
	if threshold <= 0 {
		threshold = DefaultInvalidateThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Breaker{store: store, threshold: threshold, logger: logger}
}

// OnOutcome applies the transition rule for one fetch outcome. Success resets
// the failure count; an auth failure increments it and retires the credential
// at the threshold. Other failures and engine unavailability say nothing
// about the credential and leave it untouched.
func (b *Breaker) OnOutcome(ctx context.Context, credentialID string, kind insight.OutcomeKind) error {
	switch kind {
	case insight.OutcomeSuccess:
		if err := b.store.RecordSuccess(ctx, credentialID); err != nil {
			return fmt.Errorf("record success: %w", err)
		}
		return nil
	case insight.OutcomeAuthFailure:
		count, err := b.store.RecordFailure(ctx, credentialID)
		if err != nil {
			return fmt.Errorf("record failure: %w", err)
		}
		b.logger.Info("credential auth failure recorded",
			zap.String("credential_id", credentialID),
			zap.Int("failure_count", count),
		)
		if count >= b.threshold {
			if err := b.store.Invalidate(ctx, credentialID); err != nil {
				return fmt.Errorf("invalidate credential: %w", err)
			}
			metrics.ObserveCredentialInvalidated()
			b.logger.Warn("credential invalidated",
				zap.String("credential_id", credentialID),
				zap.Int("failure_count", count),
			)
		}
		return nil
	default:
		// OtherFailure and EngineUnavailable are not evidence against
		// the credential.
		return nil
	}
}
