package secondary

import "context"

// SessionStore holds in-flight form sessions. Contents are ephemeral: a
// restart may drop them and nothing else depends on them surviving.
type SessionStore interface {
	// Load returns the session for the identity, or nil if there is none.
	Load(ctx context.Context, identityID int64) (*FormSessionRecord, error)

	// Save replaces the session for the identity.
	Save(ctx context.Context, session *FormSessionRecord) error

	// Clear drops the session for the identity. Clearing an absent session
	// is not an error.
	Clear(ctx context.Context, identityID int64) error
}

// FormSessionRecord is the serialized form of a form session.
type FormSessionRecord struct {
	IdentityID int64  `json:"identity_id"`
	Step       string `json:"step"`
	Systolic   *int   `json:"systolic,omitempty"`
	Diastolic  *int   `json:"diastolic,omitempty"`
	Pulse      *int   `json:"pulse,omitempty"`
}
