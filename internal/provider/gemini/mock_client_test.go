package gemini

import (
	"context"
	"errors"
	"iter"

	"google.golang.org/genai"
)

// mockClient is a mock implementation of Client for testing.
type mockClient struct {
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	streamChunks        []*genai.GenerateContentResponse
	streamErr           error
}

func (m *mockClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.generateContentFunc != nil {
		return m.generateContentFunc(ctx, model, contents, config)
	}
	return nil, errors.New("generateContentFunc not set")
}

func (m *mockClient) GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range m.streamChunks {
			if !yield(c, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield(nil, m.streamErr)
		}
	}
}

func textCandidate(text string) *genai.Candidate {
	return &genai.Candidate{
		Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		FinishReason: genai.FinishReasonStop,
	}
}
