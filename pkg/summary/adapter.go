// Package summary adapts the external Gemini summarizer and splits its
// output into transport-sized chunks.
package summary

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/telebrief/telebrief/pkg/interfaces"
)

// GeminiSummarizer sends digests to the Gemini API.
type GeminiSummarizer struct {
	client *genai.Client
	model  string
	logger interfaces.Logger
}

func NewGeminiSummarizer(ctx context.Context, apiKey, model string, logger interfaces.Logger) (*GeminiSummarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Gemini client: %v", err)
	}
	return &GeminiSummarizer{client: client, model: model, logger: logger}, nil
}

// Summarize sends the digest and returns the summary text. A response with
// no usable text is ErrEmptySummary, so callers can report it distinctly
// rather than dropping it.
func (s *GeminiSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	budget := int32(0) // thinking disabled
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(text), &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: &budget},
	})
	if err != nil {
		return "", fmt.Errorf("summarizer request failed: %v", err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		s.logger.Error("Summarizer returned an empty response")
		return "", interfaces.ErrEmptySummary
	}
	return out, nil
}
