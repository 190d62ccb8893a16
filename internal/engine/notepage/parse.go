// Package notepage parses the platform's note detail pages.
package notepage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lihongqing2001-gif/XhsInsight/internal/insight"
)

var initialStateRe = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\})\s*</script>`)

// IsLoginWall reports whether the page body is the anonymous login prompt
// rather than note content.
func IsLoginWall(body []byte) bool {
	page := string(body)
	return strings.Contains(page, "请先登录") || strings.Contains(page, "login-container")
}

// Parse extracts the note payload embedded in the page's initial state blob.
// Counter fields arrive as strings and the blob uses the literal `undefined`
// for absent values.
func Parse(noteURL string, body []byte) (insight.NoteContent, error) {
	match := initialStateRe.FindSubmatch(body)
	if match == nil {
		return insight.NoteContent{}, fmt.Errorf("initial state blob not found in note page")
	}
	blob := strings.ReplaceAll(string(match[1]), "undefined", "null")

	var state map[string]any
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return insight.NoteContent{}, fmt.Errorf("decode initial state: %w", err)
	}

	note := findNoteNode(state)
	if note == nil {
		return insight.NoteContent{}, fmt.Errorf("note node not found in initial state")
	}

	content := insight.NoteContent{
		URL:   noteURL,
		Title: stringField(note, "title"),
		Body:  stringField(note, "desc"),
		Raw:   append([]byte(nil), body...),
	}
	if interact, ok := note["interactInfo"].(map[string]any); ok {
		content.LikeCount = countField(interact, "likedCount")
		content.CollectCount = countField(interact, "collectedCount")
		content.CommentCount = countField(interact, "commentCount")
	}
	if user, ok := note["user"].(map[string]any); ok {
		content.AuthorName = stringField(user, "nickname")
	}
	if images, ok := note["imageList"].([]any); ok {
		for _, img := range images {
			m, ok := img.(map[string]any)
			if !ok {
				continue
			}
			if u := stringField(m, "urlDefault"); u != "" {
				content.ImageURLs = append(content.ImageURLs, u)
			}
		}
	}
	if len(content.ImageURLs) > 0 {
		content.CoverImage = content.ImageURLs[0]
	}
	if content.Title == "" && content.Body == "" {
		return insight.NoteContent{}, fmt.Errorf("note payload is empty")
	}
	return content, nil
}

// findNoteNode walks state.note.noteDetailMap and returns the first entry's
// note object.
func findNoteNode(state map[string]any) map[string]any {
	noteRoot, ok := state["note"].(map[string]any)
	if !ok {
		return nil
	}
	detailMap, ok := noteRoot["noteDetailMap"].(map[string]any)
	if !ok {
		return nil
	}
	for _, entry := range detailMap {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if note, ok := m["note"].(map[string]any); ok {
			return note
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func countField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	case float64:
		return int(v)
	default:
		return 0
	}
}
