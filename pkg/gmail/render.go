package gmail

import (
	"fmt"
	"strings"

	"github.com/telebrief/telebrief/pkg/interfaces"
)

// previewLimit caps the body portion of a rendered single message.
const previewLimit = 500

// RenderMessage formats one message for chat delivery. The body is cut to
// previewLimit characters with a trailing ellipsis marker.
func RenderMessage(email *interfaces.EmailMessage) string {
	body := email.Body
	if runes := []rune(body); len(runes) > previewLimit {
		body = string(runes[:previewLimit])
	}
	return fmt.Sprintf("📧 Last email:\nFrom: %s\nSubject: %s\nDate: %s\n\n%s...",
		email.From, email.Subject, email.Date, body)
}

// RenderDigest assembles the ordered message set into the text submitted to
// the summarizer.
func RenderDigest(emails []interfaces.EmailMessage) string {
	blocks := make([]string, 0, len(emails))
	for _, email := range emails {
		blocks = append(blocks, fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\nBody: %s\n\n---\n",
			email.From, email.Subject, email.Date, email.Body))
	}
	return strings.Join(blocks, "\n")
}

// SummaryPrompt wraps the digest in the summarization instructions.
func SummaryPrompt(digest string) string {
	return fmt.Sprintf(`You are my email assistant. Below I will provide you with a feed of all my emails for today, including the sender, subject, date, and body text.

Your task:
1. Summarize the main topics and information from these emails in a clear, concise way.
2. Group related emails together if they are about the same topic.
3. Highlight any important actions, deadlines, or requests.
4. Keep the summary easy to scan, using bullet points if possible.
5. Ignore irrelevant details like signatures, disclaimers, or repeated automated text.

Here are today's emails:
%s`, digest)
}
