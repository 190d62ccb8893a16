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

type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func newPoolFixture(t *testing.T, ids ...string) (*memory.CredentialStore, *Selector) {
	t.Helper()
	store := memory.NewCredentialStore()
	base := time.Unix(1700000000, 0).UTC()
	for i, id := range ids {
		require.NoError(t, store.Add(context.Background(), insight.Credential{
			ID:        id,
			OwnerID:   "owner-1",
			Value:     "cookie-" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	clock := &fakeClock{now: base.Add(time.Hour), step: time.Second}
	return store, NewSelector(store, clock, zap.NewNop())
}

func TestSelectRotatesFairly(t *testing.T) {
	t.Parallel()

	_, selector := newPoolFixture(t, "a", "b", "c")

	seen := map[string]int{}
	for i := 0; i < 6; i++ {
		cred, err := selector.Select(context.Background(), "owner-1")
		require.NoError(t, err)
		seen[cred.ID]++
	}
	require.Len(t, seen, 3, "expected all credentials to participate")
	for id, n := range seen {
		require.Equal(t, 2, n, "credential %s selected %d times", id, n)
	}
}

func TestSelectEmptyPool(t *testing.T) {
	t.Parallel()

	store := memory.NewCredentialStore()
	clock := &fakeClock{now: time.Unix(1700000000, 0).UTC(), step: time.Second}
	selector := NewSelector(store, clock, zap.NewNop())

	_, err := selector.Select(context.Background(), "owner-1")
	require.ErrorIs(t, err, insight.ErrPoolExhausted)
}

func TestSelectSkipsInvalidCredentials(t *testing.T) {
	t.Parallel()

	store, selector := newPoolFixture(t, "a", "b")
	require.NoError(t, store.Invalidate(context.Background(), "a"))

	for i := 0; i < 3; i++ {
		cred, err := selector.Select(context.Background(), "owner-1")
		require.NoError(t, err)
		require.Equal(t, "b", cred.ID)
	}
}
