package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
	"github.com/lihongqing2001-gif/XhsInsight/internal/store/memory"
)

func newBreakerFixture(t *testing.T) (*memory.CredentialStore, *Breaker) {
	t.Helper()
	store := memory.NewCredentialStore()
	require.NoError(t, store.Add(context.Background(), insight.Credential{
		ID:        "cred-1",
		OwnerID:   "owner-1",
		Value:     "web_session=abc",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}))
	return store, NewBreaker(store, DefaultInvalidateThreshold, zap.NewNop())
}

func TestBreakerInvalidatesAtThreshold(t *testing.T) {
	t.Parallel()

	store, breaker := newBreakerFixture(t)
	ctx := context.Background()

	for i := 1; i <= DefaultInvalidateThreshold; i++ {
		require.NoError(t, breaker.OnOutcome(ctx, "cred-1", insight.OutcomeAuthFailure))
		cred, err := store.Get(ctx, "cred-1")
		require.NoError(t, err)
		require.Equal(t, i, cred.FailureCount)
		if i < DefaultInvalidateThreshold {
			require.Equal(t, insight.CredentialStatusActive, cred.Status)
		} else {
			require.Equal(t, insight.CredentialStatusInvalid, cred.Status)
		}
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	t.Parallel()

	store, breaker := newBreakerFixture(t)
	ctx := context.Background()

	require.NoError(t, breaker.OnOutcome(ctx, "cred-1", insight.OutcomeAuthFailure))
	require.NoError(t, breaker.OnOutcome(ctx, "cred-1", insight.OutcomeAuthFailure))
	require.NoError(t, breaker.OnOutcome(ctx, "cred-1", insight.OutcomeSuccess))

	cred, err := store.Get(ctx, "cred-1")
	require.NoError(t, err)
	require.Equal(t, 0, cred.FailureCount)
	require.Equal(t, insight.CredentialStatusActive, cred.Status)

	// No carry-over: the next failure sequence starts from zero.
	require.NoError(t, breaker.OnOutcome(ctx, "cred-1", insight.OutcomeAuthFailure))
	cred, err = store.Get(ctx, "cred-1")
	require.NoError(t, err)
	require.Equal(t, 1, cred.FailureCount)
}

func TestBreakerIgnoresNonCredentialOutcomes(t *testing.T) {
	t.Parallel()

	store, breaker := newBreakerFixture(t)
	ctx := context.Background()

	require.NoError(t, breaker.OnOutcome(ctx, "cred-1", insight.OutcomeOtherFailure))
	require.NoError(t, breaker.OnOutcome(ctx, "cred-1", insight.OutcomeEngineUnavailable))

	cred, err := store.Get(ctx, "cred-1")
	require.NoError(t, err)
	require.Equal(t, 0, cred.FailureCount)
	require.Equal(t, insight.CredentialStatusActive, cred.Status)
}

func TestBreakerDefaultsThreshold(t *testing.T) {
	t.Parallel()

	store := memory.NewCredentialStore()
	b := NewBreaker(store, 0, nil)
	require.Equal(t, DefaultInvalidateThreshold, b.threshold)
}
