// Package fallback produces placeholder note content when no fetch engine is
// available. Output is a pure function of the requested URL so repeated
// requests render identically.
package fallback

import (
	"fmt"
	"hash/fnv"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

// Generator builds demo-mode note content.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// Generate returns placeholder content for the URL. The result is always
// flagged as fallback and is never persisted as if it were fetched.
func (g *Generator) Generate(url string) insight.NoteContent {
	seed := fnv.New32a()
	seed.Write([]byte(url))
	h := seed.Sum32()

	return insight.NoteContent{
		URL:   url,
		Title: "【演示模式】笔记内容预览",
		Body: fmt.Sprintf(
			"当前运行在演示模式下，未能连接抓取引擎。这是为 %s 生成的占位内容，"+
				"用于展示分析流程。配置可用的抓取引擎后即可获取真实笔记数据。",
			url,
		),
		AuthorName:   "演示作者",
		LikeCount:    int(h%900) + 100,
		CollectCount: int(h%450) + 50,
		CommentCount: int(h%90) + 10,
		TopComments: []string{
			"演示评论：内容很实用，收藏了。",
			"演示评论：期待更多分享。",
		},
		IsFallback: true,
	}
}
