package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutObjectRoundTrip(t *testing.T) {
	t.Parallel()

	store := New()
	uri, err := store.PutObject(context.Background(), "notes/abc.html", "text/html", []byte("<html/>"))
	require.NoError(t, err)
	require.Equal(t, "mem://notes/abc.html", uri)

	data, ok := store.GetObject("notes/abc.html")
	require.True(t, ok)
	require.Equal(t, []byte("<html/>"), data)
}

func TestPutObjectRequiresPath(t *testing.T) {
	t.Parallel()

	store := New()
	_, err := store.PutObject(context.Background(), "  ", "text/html", []byte("x"))
	require.Error(t, err)
	require.Zero(t, store.Len())
}

func TestPutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := New()
	data := []byte("original")
	_, err := store.PutObject(context.Background(), "p", "", data)
	require.NoError(t, err)

	data[0] = 'X'
	stored, ok := store.GetObject("p")
	require.True(t, ok)
	require.Equal(t, []byte("original"), stored)
}
