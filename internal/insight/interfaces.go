package insight

import (
	"context"
	"time"
)

// CredentialStore provides durable, owner-scoped access to credentials. All
// mutating operations are atomic with respect to concurrent callers on the
// same credential.
type CredentialStore interface {
	Add(ctx context.Context, cred Credential) error
	Get(ctx context.Context, id string) (Credential, error)
	List(ctx context.Context, ownerID string) ([]Credential, error)
	// ListActive returns Active credentials for the owner ordered by
	// last_used ascending, never-used first. Empty is a valid result.
	ListActive(ctx context.Context, ownerID string) ([]Credential, error)
	// AcquireNext claims the least-recently-used Active credential for the
	// owner and stamps its last_used timestamp in one atomic step, so two
	// concurrent acquisitions cannot claim the same credential while
	// another is available. Returns ErrCredentialNotFound when the owner
	// has no Active credentials.
	AcquireNext(ctx context.Context, ownerID string, now time.Time) (Credential, error)
	// RecordUse stamps last_used; idempotent under retries.
	RecordUse(ctx context.Context, id string, at time.Time) error
	// RecordFailure atomically increments the failure count and returns
	// the new value.
	RecordFailure(ctx context.Context, id string) (int, error)
	// RecordSuccess resets the failure count to zero; status is untouched.
	RecordSuccess(ctx context.Context, id string) error
	// Invalidate retires the credential. Idempotent.
	Invalidate(ctx context.Context, id string) error
}

// NoteStore persists analysis records.
type NoteStore interface {
	SaveNote(ctx context.Context, rec NoteRecord) error
	ListNotes(ctx context.Context, ownerID string) ([]NoteRecord, error)
}

// FetchEngine is the raw external fetch capability. Implementations wrap
// classification hints into the sentinel errors ErrAuthRejected and
// ErrEngineUnavailable; anything else is treated as an other-failure.
type FetchEngine interface {
	Fetch(ctx context.Context, url string, credential string) (NoteContent, error)
}

// OutcomeFetcher is the normalized boundary the orchestrator fetches through.
type OutcomeFetcher interface {
	Fetch(ctx context.Context, url string, credential string) Outcome
}

// CredentialSelector picks the next credential for an owner.
type CredentialSelector interface {
	Select(ctx context.Context, ownerID string) (Credential, error)
}

// CircuitBreaker translates fetch outcomes into credential health updates.
type CircuitBreaker interface {
	OnOutcome(ctx context.Context, credentialID string, kind OutcomeKind) error
}

// FallbackGenerator produces deterministic stand-in content for a URL.
type FallbackGenerator interface {
	Generate(url string) NoteContent
}

// Summarizer produces an analysis text for fetched note content. Errors are
// reported verbatim and never influence credential health.
type Summarizer interface {
	Summarize(ctx context.Context, title string, body string, topComments []string) (string, error)
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes analysis-completed events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
