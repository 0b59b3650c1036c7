package interfaces

import "context"

// EmailMessage is the normalized shape every retrieval operation produces.
// It is transient and never persisted.
type EmailMessage struct {
	ID      string
	From    string
	Subject string
	Date    string
	Snippet string
	Body    string
}

// MailService is the retrieval pipeline seen by the chat layer.
type MailService interface {
	// ActiveAccount returns the authenticated account's email address.
	ActiveAccount(ctx context.Context) (string, error)

	// LastMessage returns the most recent inbox message, or nil when the
	// inbox is empty.
	LastMessage(ctx context.Context) (*EmailMessage, error)

	// TodaysMessages returns all messages received since local midnight,
	// oldest-to-newest as the provider lists them. An empty slice means
	// no mail today.
	TodaysMessages(ctx context.Context) ([]EmailMessage, error)
}

// Summarizer turns an assembled mail digest into a summary text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Notifier delivers out-of-band notices to the operator identity,
// decoupled from any HTTP response path.
type Notifier interface {
	Notify(text string)
}
