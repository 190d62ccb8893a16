// Package pool implements credential selection and retirement policy over the
// credential store. The selector and breaker are stateless; all shared state
// lives in the store.
package pool

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/metrics"
)

// Selector picks the next credential for an owner, least recently used first.
type Selector struct {
	store  insight.CredentialStore
	clock  insight.Clock
	logger *zap.Logger
}

// NewSelector constructs a Selector.
func NewSelector(store insight.CredentialStore, clock insight.Clock, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Selector{store: store, clock: clock, logger: logger}
}

// Select claims the least-recently-used Active credential and stamps its
// last_used timestamp in one atomic store operation. An empty pool maps to
// ErrPoolExhausted, which is terminal for the caller.
func (s *Selector) Select(ctx context.Context, ownerID string) (insight.Credential, error) {
	cred, err := s.store.AcquireNext(ctx, ownerID, s.clock.Now())
	if err != nil {
		if errors.Is(err, insight.ErrCredentialNotFound) {
			metrics.ObservePoolExhausted()
			s.logger.Warn("credential pool exhausted", zap.String("owner_id", ownerID))
			return insight.Credential{}, insight.ErrPoolExhausted
		}
		return insight.Credential{}, fmt.Errorf("acquire credential: %w", err)
	}
	s.logger.Debug("credential selected",
		zap.String("owner_id", ownerID),
		zap.String("credential_id", cred.ID),
	)
	return cred, nil
}
