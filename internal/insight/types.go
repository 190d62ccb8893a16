// Package insight defines core types shared across subsystems.
package insight

import "time"

// CredentialStatus represents the health state of a pooled credential.
type CredentialStatus string

// Credential status values persisted in the credential store.
const (
	CredentialStatusActive  CredentialStatus = "active"
	CredentialStatusInvalid CredentialStatus = "invalid"
)

// Credential is one rotating platform cookie owned by a tenant. Invalid
// credentials are never reactivated by the service; reactivation is an
// administrative action against the store.
type Credential struct {
	ID           string           `json:"id"`
	OwnerID      string           `json:"owner_id"`
	Value        string           `json:"-"`
	Note         string           `json:"note,omitempty"`
	Status       CredentialStatus `json:"status"`
	FailureCount int              `json:"failure_count"`
	LastUsedAt   *time.Time       `json:"last_used_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NoteContent is the cleaned payload of one fetched note.
type NoteContent struct {
	URL          string   `json:"url"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	CoverImage   string   `json:"cover_image,omitempty"`
	AuthorName   string   `json:"author_name,omitempty"`
	LikeCount    int      `json:"like_count"`
	CollectCount int      `json:"collect_count"`
	CommentCount int      `json:"comment_count"`
	TopComments  []string `json:"top_comments,omitempty"`
	// IsFallback marks synthetic stand-in content produced when the fetch
	// engine is unavailable. Downstream layers must never present it as
	// real scraped data.
	IsFallback bool `json:"is_fallback"`
	// Raw carries the unparsed engine payload for blob archival.
	Raw []byte `json:"-"`
}

// NoteRecord is persisted after each successful analysis.
type NoteRecord struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CoverImage   string    `json:"cover_image,omitempty"`
	LikeCount    int       `json:"like_count"`
	CollectCount int       `json:"collect_count"`
	CommentCount int       `json:"comment_count"`
	SummaryText  string    `json:"summary_text,omitempty"`
	IsFallback   bool      `json:"is_fallback"`
	BlobURI      string    `json:"blob_uri,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
