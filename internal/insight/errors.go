package insight

import "errors"

// Sentinel errors shared across the credential pool and orchestration layers.
var (
	// ErrPoolExhausted means no Active credentials remain for the owner.
	// Terminal; the owner must supply fresh credentials.
	ErrPoolExhausted = errors.New("credential pool exhausted")

	// ErrRetriesExhausted means the orchestrator hit its attempt bound
	// without a success or terminal classification.
	ErrRetriesExhausted = errors.New("fetch retries exhausted")

	// ErrAuthRejected is wrapped by engines when the platform refuses the
	// presented credential.
	ErrAuthRejected = errors.New("platform rejected credential")

	// ErrEngineUnavailable is wrapped by engines when their execution
	// dependency cannot be constructed (for example a missing JS runtime).
	ErrEngineUnavailable = errors.New("fetch engine unavailable")

	// ErrCredentialNotFound is returned by stores for unknown IDs.
	ErrCredentialNotFound = errors.New("credential not found")
)
