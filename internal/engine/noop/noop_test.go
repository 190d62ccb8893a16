package noop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

func TestFetchAlwaysUnavailable(t *testing.T) {
	t.Parallel()

	eng := New()
	_, err := eng.Fetch(context.Background(), "https://example.com/explore/abc", "web_session=abc")
	require.ErrorIs(t, err, insight.ErrEngineUnavailable)
}
