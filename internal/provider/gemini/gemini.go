// Package gemini implements the model transport over Google's Gemini API.
package gemini

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Cyclone1070/agentcore/internal/provider"
)

// Provider implements provider.Provider for Google Gemini.
type Provider struct {
	client Client
	model  string
}

// New creates a Provider that sends requests for model through client.
func New(client Client, model string) *Provider {
	if client == nil {
		panic("client is required")
	}
	if model == "" {
		panic("model is required")
	}
	return &Provider{client: client, model: model}
}

// Model returns the model name requests are sent to.
func (p *Provider) Model() string {
	return p.model
}

// Generate sends a request to the Gemini API and returns the response.
func (p *Provider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	contents, config := toGeminiRequest(req)

	resp, err := p.client.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	return fromGeminiResponse(resp)
}

// Stream sends a request and yields text and tool-call deltas as they arrive.
// A usage delta is yielded last when the API reports one.
func (p *Provider) Stream(ctx context.Context, req *provider.Request) iter.Seq2[provider.Delta, error] {
	return func(yield func(provider.Delta, error) bool) {
		contents, config := toGeminiRequest(req)

		var usage *provider.Usage
		chunks := 0
		for resp, err := range p.client.GenerateContentStream(ctx, p.model, contents, config) {
			if err != nil {
				yield(provider.Delta{}, mapGeminiError(err))
				return
			}
			chunks++
			deltas, err := fromGeminiChunk(resp)
			if err != nil {
				yield(provider.Delta{}, err)
				return
			}
			for _, d := range deltas {
				if !yield(d, nil) {
					return
				}
			}
			if u := toUsage(resp.UsageMetadata); u != nil {
				usage = u
			}
		}

		slog.Debug("gemini stream finished", "model", p.model, "chunks", chunks)
		if usage != nil {
			yield(provider.Delta{Usage: usage}, nil)
		}
	}
}
