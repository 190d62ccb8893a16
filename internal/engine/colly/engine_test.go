package collyengine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lihongqing2001-gif/XhsInsight/internal/engine/signer"
	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

func TestFetchUnavailableSignerSurfacesBeforeNetwork(t *testing.T) {
	t.Parallel()

	sig := signer.New(signer.Config{NodeBin: "definitely-not-a-real-binary-xyz"})
	eng := New(Config{Timeout: time.Second}, sig, nil)

	_, err := eng.Fetch(context.Background(), "https://example.com/explore/abc", "web_session=abc")
	require.ErrorIs(t, err, insight.ErrEngineUnavailable)
}

func TestFetchRejectsUnparsableURL(t *testing.T) {
	t.Parallel()

	sig := signer.New(signer.Config{NodeBin: "definitely-not-a-real-binary-xyz"})
	eng := New(Config{}, sig, nil)

	_, err := eng.Fetch(context.Background(), "://bad-url", "web_session=abc")
	require.Error(t, err)
	require.NotErrorIs(t, err, insight.ErrEngineUnavailable)
}
