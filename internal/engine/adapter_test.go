package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

type stubEngine struct {
	content insight.NoteContent
	err     error
	delay   time.Duration
}

func (s *stubEngine) Fetch(ctx context.Context, _ string, _ string) (insight.NoteContent, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return insight.NoteContent{}, ctx.Err()
		}
	}
	return s.content, s.err
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want insight.OutcomeKind
	}{
		{"nil error is success", nil, insight.OutcomeSuccess},
		{"auth sentinel", insight.ErrAuthRejected, insight.OutcomeAuthFailure},
		{"wrapped auth sentinel", fmt.Errorf("status 401: %w", insight.ErrAuthRejected), insight.OutcomeAuthFailure},
		{"unavailable sentinel", insight.ErrEngineUnavailable, insight.OutcomeEngineUnavailable},
		{"wrapped unavailable sentinel", fmt.Errorf("no node: %w", insight.ErrEngineUnavailable), insight.OutcomeEngineUnavailable},
		{"plain error", errors.New("connection reset"), insight.OutcomeOtherFailure},
		{"context deadline", context.DeadlineExceeded, insight.OutcomeOtherFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			outcome := Classify(insight.NoteContent{Title: "t"}, tc.err)
			require.Equal(t, tc.want, outcome.Kind)
			if tc.err == nil {
				require.Equal(t, "t", outcome.Content.Title)
			} else {
				require.Error(t, outcome.Err)
				require.NotEmpty(t, outcome.Detail)
			}
		})
	}
}

func TestClassifyUnavailableWinsOverAuth(t *testing.T) {
	t.Parallel()

	// An error carrying both sentinels must classify as unavailable, never as
	// evidence against the credential.
	err := fmt.Errorf("%w while probing: %w", insight.ErrEngineUnavailable, insight.ErrAuthRejected)
	outcome := Classify(insight.NoteContent{}, err)
	require.Equal(t, insight.OutcomeEngineUnavailable, outcome.Kind)
}

func TestAdapterFetchSuccess(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(&stubEngine{content: insight.NoteContent{Title: "hello"}}, time.Second, nil)
	outcome := adapter.Fetch(context.Background(), "https://example.com/n/1", "cookie")
	require.Equal(t, insight.OutcomeSuccess, outcome.Kind)
	require.Equal(t, "hello", outcome.Content.Title)
}

func TestAdapterFetchTimesOutAsOtherFailure(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(&stubEngine{delay: time.Second}, 10*time.Millisecond, nil)
	outcome := adapter.Fetch(context.Background(), "https://example.com/n/1", "cookie")
	require.Equal(t, insight.OutcomeOtherFailure, outcome.Kind)
}
