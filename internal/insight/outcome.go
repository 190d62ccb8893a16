package insight

// OutcomeKind tags the normalized result of one fetch attempt.
type OutcomeKind string

// Outcome kinds produced by the fetch engine adapter. Exactly one kind is
// assigned per attempt.
const (
	// OutcomeSuccess carries well-formed note content.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeAuthFailure means the platform rejected the credential
	// (401/403 or an explicit login-required signal). Recoverable by
	// rotating to another credential, bounded by the orchestrator.
	OutcomeAuthFailure OutcomeKind = "auth_failure"
	// OutcomeOtherFailure covers network, parse and unclassified errors.
	// Not attributable to the credential; surfaced immediately.
	OutcomeOtherFailure OutcomeKind = "other_failure"
	// OutcomeEngineUnavailable means the engine's execution dependency
	// could not be constructed. Not evidence the credential is bad; the
	// orchestrator serves fallback content instead.
	OutcomeEngineUnavailable OutcomeKind = "engine_unavailable"
)

// Outcome is the tagged result of one fetch attempt through the adapter.
type Outcome struct {
	Kind    OutcomeKind
	Content NoteContent
	Detail  string
	Err     error
}
