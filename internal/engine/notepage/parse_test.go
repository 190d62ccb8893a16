package notepage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<html><head></head><body>
<script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"abc123":{"note":{"title":"城市徒步路线","desc":"周末走了一条新路线","interactInfo":{"likedCount":"1024","collectedCount":"88","commentCount":"36"},"user":{"nickname":"walker"},"imageList":[{"urlDefault":"https://img.example.com/1.jpg"},{"urlDefault":"https://img.example.com/2.jpg"}],"time":undefined}}}}}</script>
</body></html>`

func TestParseExtractsNoteFields(t *testing.T) {
	t.Parallel()

	content, err := Parse("https://example.com/explore/abc123", []byte(samplePage))
	require.NoError(t, err)

	require.Equal(t, "城市徒步路线", content.Title)
	require.Equal(t, "周末走了一条新路线", content.Body)
	require.Equal(t, 1024, content.LikeCount)
	require.Equal(t, 88, content.CollectCount)
	require.Equal(t, 36, content.CommentCount)
	require.Equal(t, "walker", content.AuthorName)
	require.Len(t, content.ImageURLs, 2)
	require.Equal(t, "https://img.example.com/1.jpg", content.CoverImage)
	require.False(t, content.IsFallback)
	require.NotEmpty(t, content.Raw)
}

func TestParseMissingStateBlob(t *testing.T) {
	t.Parallel()

	_, err := Parse("https://example.com/explore/abc", []byte("<html><body>nothing</body></html>"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "initial state")
}

func TestParseEmptyNoteRejected(t *testing.T) {
	t.Parallel()

	page := `<script>window.__INITIAL_STATE__={"note":{"noteDetailMap":{"x":{"note":{"title":"","desc":""}}}}}</script>`
	_, err := Parse("https://example.com/explore/x", []byte(page))
	require.Error(t, err)
}

func TestIsLoginWall(t *testing.T) {
	t.Parallel()

	require.True(t, IsLoginWall([]byte(`<div class="login-container">扫码登录</div>`)))
	require.True(t, IsLoginWall([]byte("请先登录后查看")))
	require.False(t, IsLoginWall([]byte(samplePage)))
}
