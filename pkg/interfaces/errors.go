package interfaces

import "errors"

// Error taxonomy for the authorization and mail pipeline. Callers match
// with errors.Is; anything else coming out of an operation is a provider
// failure and is reported with its underlying text.
var (
	// ErrUnauthenticated means no OAuth credentials have been stored yet.
	ErrUnauthenticated = errors.New("not authenticated with the mail provider")

	// ErrUnauthorized means the requesting chat identity is not the
	// configured authorized user.
	ErrUnauthorized = errors.New("requesting user is not allowed")

	// ErrStateMismatch means a callback presented a state token that does
	// not match the pending authorization session (or there is none).
	ErrStateMismatch = errors.New("authorization failed, state mismatch")

	// ErrMissingCode means the callback carried no authorization code.
	ErrMissingCode = errors.New("no authorization code provided")

	// ErrAlreadyAuthorized means credentials exist and a new authorization
	// was requested anyway.
	ErrAlreadyAuthorized = errors.New("already authorized")

	// ErrEmptySummary means the summarizer returned no usable text.
	ErrEmptySummary = errors.New("summarizer returned an empty response")

	// ErrNoCredentials means the credential store holds no record. This is
	// the normal first-run state, not a failure.
	ErrNoCredentials = errors.New("no stored credentials")
)
