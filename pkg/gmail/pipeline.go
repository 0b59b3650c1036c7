package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/telebrief/telebrief/pkg/interfaces"
)

const (
	userID = "me"

	// todayPageCap bounds how many of today's messages are fetched.
	todayPageCap int64 = 50
)

// Header placeholders used when a message omits them.
const (
	unknownSender = "Unknown sender"
	noSubject     = "(No subject)"
)

// Pipeline fetches messages through the factory and normalizes provider
// records into EmailMessage values.
type Pipeline struct {
	factory *Factory
	logger  interfaces.Logger

	// now is stubbed in tests to pin the day boundary.
	now func() time.Time
}

func NewPipeline(factory *Factory, logger interfaces.Logger) *Pipeline {
	return &Pipeline{
		factory: factory,
		logger:  logger,
		now:     time.Now,
	}
}

// ActiveAccount fetches the authenticated account's profile and returns its
// email address. Doubles as a liveness check for the stored credentials.
func (p *Pipeline) ActiveAccount(ctx context.Context) (string, error) {
	srv, err := p.factory.Service(ctx)
	if err != nil {
		return "", err
	}

	profile, err := srv.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to fetch Gmail profile: %v", err)
	}
	p.logger.Info(fmt.Sprintf("Authenticated Gmail user: %s", profile.EmailAddress))
	return profile.EmailAddress, nil
}

// LastMessage returns the single most recent inbox message, or nil when the
// inbox is empty.
func (p *Pipeline) LastMessage(ctx context.Context) (*interfaces.EmailMessage, error) {
	srv, err := p.factory.Service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Users.Messages.List(userID).LabelIds("INBOX").MaxResults(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list messages: %v", err)
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}

	msg, err := srv.Users.Messages.Get(userID, resp.Messages[0].Id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve message %s: %v", resp.Messages[0].Id, err)
	}

	email := normalize(msg, false)
	return &email, nil
}

// TodaysMessages returns every message received since local midnight, capped
// at todayPageCap, in the provider's listing order.
func (p *Pipeline) TodaysMessages(ctx context.Context) ([]interfaces.EmailMessage, error) {
	srv, err := p.factory.Service(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("after:%d", localMidnight(p.now()).Unix())
	p.logger.Debug(fmt.Sprintf("Listing today's messages with query: %s", query))

	refs, err := p.listAll(ctx, srv, query, todayPageCap)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return []interfaces.EmailMessage{}, nil
	}

	emails := make([]interfaces.EmailMessage, 0, len(refs))
	for _, ref := range refs {
		msg, err := srv.Users.Messages.Get(userID, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve message %s: %v", ref.Id, err)
		}
		emails = append(emails, normalize(msg, true))
	}
	return emails, nil
}

// listAll pages through the message list until max results are collected or
// the provider runs out of pages.
func (p *Pipeline) listAll(ctx context.Context, srv *gmail.Service, query string, max int64) ([]*gmail.Message, error) {
	var refs []*gmail.Message
	pageToken := ""
	remaining := max

	for remaining > 0 {
		call := srv.Users.Messages.List(userID).Q(query).MaxResults(remaining)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to list messages: %v", err)
		}

		refs = append(refs, resp.Messages...)
		remaining -= int64(len(resp.Messages))

		if resp.NextPageToken == "" || len(resp.Messages) == 0 || remaining <= 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	return refs, nil
}

// normalize maps a full provider record to the uniform message shape.
// When snippetFirst is set the provider snippet wins over body extraction,
// matching the digest behavior; the last-message path always extracts.
func normalize(msg *gmail.Message, snippetFirst bool) interfaces.EmailMessage {
	email := interfaces.EmailMessage{
		ID:      msg.Id,
		From:    unknownSender,
		Subject: noSubject,
		Snippet: msg.Snippet,
	}
	if msg.Payload == nil {
		if snippetFirst {
			email.Body = msg.Snippet
		}
		return email
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			email.From = header.Value
		case "Subject":
			email.Subject = header.Value
		case "Date":
			email.Date = header.Value
		}
	}

	if snippetFirst && msg.Snippet != "" {
		email.Body = msg.Snippet
	} else {
		email.Body = extractPlainText(msg.Payload)
	}
	return email
}

// extractPlainText prefers a text/plain sub-part when the message is
// multipart, falling back to the top-level body.
func extractPlainText(payload *gmail.MessagePart) string {
	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
				return decodeBody(part.Body.Data)
			}
		}
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	return ""
}

// decodeBody handles both padded and unpadded base64url, which the provider
// emits interchangeably.
func decodeBody(data string) string {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(b)
	}
	return ""
}

// localMidnight zeroes the clock in the local day of t.
func localMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
