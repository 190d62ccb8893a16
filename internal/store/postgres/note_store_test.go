package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

func TestSaveNoteInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewNoteStore(mock, "notes")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := insight.NoteRecord{
		ID:           "note-1",
		OwnerID:      "owner-1",
		URL:          "https://www.xiaohongshu.com/explore/abc",
		Title:        "city walk route",
		Body:         "three hidden alleys worth the detour",
		CoverImage:   "https://img.example.com/cover.jpg",
		LikeCount:    1200,
		CollectCount: 340,
		CommentCount: 56,
		SummaryText:  "resonates through novelty and local detail",
		BlobURI:      "memory://notes/note-1.json",
		CreatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO notes").
		WithArgs(
			rec.ID,
			rec.OwnerID,
			rec.URL,
			rec.Title,
			rec.Body,
			rec.CoverImage,
			rec.LikeCount,
			rec.CollectCount,
			rec.CommentCount,
			rec.SummaryText,
			rec.IsFallback,
			rec.BlobURI,
			rec.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveNote(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNoteRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewNoteStore(mock, "notes")
	require.NoError(t, err)

	err = store.SaveNote(context.Background(), insight.NoteRecord{OwnerID: "owner-1"})
	require.Error(t, err)
}

func TestListNotesReturnsRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewNoteStore(mock, "notes")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	columns := []string{
		"id", "owner_id", "url", "title", "body", "cover_image", "like_count",
		"collect_count", "comment_count", "summary_text", "is_fallback", "blob_uri", "created_at",
	}

	mock.ExpectQuery("SELECT id, owner_id, url, title").
		WithArgs("owner-1").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow("note-2", "owner-1", "https://example.com/2", "b", "", "", 0, 0, 0, "", true, "", now).
			AddRow("note-1", "owner-1", "https://example.com/1", "a", "", "", 10, 2, 1, "s", false, "", now))

	notes, err := store.ListNotes(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "note-2", notes[0].ID)
	require.True(t, notes[0].IsFallback)
	require.Equal(t, 10, notes[1].LikeCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
