package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smilemakc/outreachctl/pkg/models"
)

// Summarizer produces a short profile summary used to enrich the
// `added_context` of a `linkedin_visit` step before the executor moves on
// to the next step (SPEC_FULL §4.7.1 supplement). Grounded on the
// provider-interface shape of pkg/executor/builtin/llm.go's LLMProvider,
// wired here to the real github.com/sashabaranov/go-openai client instead
// of the teacher's hand-rolled HTTP provider implementation.
type Summarizer interface {
	Summarize(ctx context.Context, profile models.LeadSnapshot) (string, error)
}

// openAISummarizer is a Summarizer backed by the OpenAI chat completions
// API.
type openAISummarizer struct {
	client *openai.Client
	model  string
}

// NewOpenAISummarizer creates a Summarizer. An empty apiKey disables
// summarization: Summarize then always returns an empty string.
func NewOpenAISummarizer(apiKey, model string) Summarizer {
	if apiKey == "" {
		return noopSummarizer{}
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &openAISummarizer{client: openai.NewClient(apiKey), model: model}
}

func (s *openAISummarizer) Summarize(ctx context.Context, profile models.LeadSnapshot) (string, error) {
	prompt := fmt.Sprintf(
		"Summarize this LinkedIn profile in two sentences for a sales rep preparing an outreach message.\nName: %s %s\nTitle: %s at %s\nIndustry: %s\nHeadline: %s\nSummary: %s",
		profile.FirstName, profile.LastName, profile.Title, profile.Company, profile.Industry, profile.Headline, profile.Summary,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               s.model,
		MaxCompletionTokens: 200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize profile: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize profile: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// noopSummarizer is used when no OpenAI API key is configured; the
// profile-summary step is optional per SPEC_FULL §4.7.1.
type noopSummarizer struct{}

func (noopSummarizer) Summarize(ctx context.Context, profile models.LeadSnapshot) (string, error) {
	return "", nil
}
