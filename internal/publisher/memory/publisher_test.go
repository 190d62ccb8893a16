package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	id, err := p.Publish(context.Background(), "note-analyzed", map[string]string{"note_id": "abc"})
	require.NoError(t, err)
	require.Equal(t, "mem-1", id)

	msgs := p.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "note-analyzed", msgs[0].Topic)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(msgs[0].Data, &payload))
	require.Equal(t, "abc", payload["note_id"])
}

func TestPublishRejectsUnmarshalablePayload(t *testing.T) {
	t.Parallel()

	p := New()
	_, err := p.Publish(context.Background(), "topic", func() {})
	require.Error(t, err)
	require.Empty(t, p.Messages())
}
