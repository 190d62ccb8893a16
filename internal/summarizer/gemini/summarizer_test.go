package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarizeReturnsCandidateText(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.Path, "models/test-model:generateContent")
		require.Equal(t, "secret", r.Header.Get("X-Goog-Api-Key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)
		require.Contains(t, req.Contents[0].Parts[0].Text, "城市徒步")

		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "  一篇关于徒步的笔记。 "}}}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	s, err := New(Config{Endpoint: srv.URL, Model: "test-model", APIKey: "secret"}, nil)
	require.NoError(t, err)

	summary, err := s.Summarize(context.Background(), "城市徒步", "走了一条新路线", []string{"收藏了"})
	require.NoError(t, err)
	require.Equal(t, "一篇关于徒步的笔记。", summary)
}

func TestSummarizeNonOKStatus(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	s, err := New(Config{Endpoint: srv.URL, APIKey: "secret"}, nil)
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), "t", "b", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestSummarizeEmptyCandidates(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}}))
	})

	s, err := New(Config{Endpoint: srv.URL, APIKey: "secret"}, nil)
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), "t", "b", nil)
	require.Error(t, err)
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	require.Error(t, err)
}
