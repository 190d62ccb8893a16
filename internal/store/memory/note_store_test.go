package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

func TestNoteStoreListNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewNoteStore()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()

	for i, id := range []string{"n1", "n2", "n3"} {
		require.NoError(t, store.SaveNote(ctx, insight.NoteRecord{
			ID:        id,
			OwnerID:   "owner-1",
			URL:       "https://example.com/" + id,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.SaveNote(ctx, insight.NoteRecord{
		ID:        "other",
		OwnerID:   "owner-2",
		CreatedAt: base,
	}))

	notes, err := store.ListNotes(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	require.Equal(t, "n3", notes[0].ID)
	require.Equal(t, "n1", notes[2].ID)
}
