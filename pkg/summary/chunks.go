package summary

// MaxChunkLength is the transport limit for a single chat message.
const MaxChunkLength = 4000

// SplitForDelivery cuts text into fixed-size chunks of at most max bytes.
// Every chunk except the last is exactly max long, and concatenating the
// chunks in order reproduces the input byte-for-byte. Boundaries are
// positional, not word- or sentence-aware.
func SplitForDelivery(text string, max int) []string {
	if max <= 0 || text == "" {
		return nil
	}

	chunks := make([]string, 0, len(text)/max+1)
	for i := 0; i < len(text); i += max {
		end := i + max
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[i:end])
	}
	return chunks
}
