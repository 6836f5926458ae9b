package gemini

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Cyclone1070/agentcore/internal/provider"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// toGeminiRequest converts a provider request into contents plus config.
// System messages become the system instruction.
func toGeminiRequest(req *provider.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	config := toGeminiConfig(req.Options)
	config.Tools = toGeminiTools(req.Tools)

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Role == provider.RoleSystem {
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
			continue
		}
		if c := messageToGeminiContent(msg); c != nil {
			contents = append(contents, c)
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	return contents, config
}

// messageToGeminiContent converts a single message to Gemini Content format.
func messageToGeminiContent(msg provider.Message) *genai.Content {
	role := "user"
	if msg.Role == provider.RoleAssistant {
		role = "model"
	}

	parts := make([]*genai.Part, 0, 1+len(msg.ToolCalls)+len(msg.ToolResults))
	if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Arguments,
			},
		})
	}
	for _, res := range msg.ToolResults {
		key := "output"
		if !res.Success {
			key = "error"
		}
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       res.CallID,
				Name:     res.Name,
				Response: map[string]any{key: res.Content},
			},
		})
	}

	// Skip empty messages
	if len(parts) == 0 {
		return nil
	}
	return &genai.Content{Role: role, Parts: parts}
}

// toGeminiConfig converts sampling options to Gemini config.
func toGeminiConfig(opts provider.Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
		Temperature:    opts.Temperature,
		TopP:           opts.TopP,
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.MaxOutputTokens
	}
	return config
}

// defaultSafetySettings returns safety settings with BLOCK_NONE for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdOff},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdOff},
	}
}

// toGeminiTools converts tool declarations to Gemini tools.
func toGeminiTools(decls []tool.Declaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}

	fds := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fds = append(fds, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  toGeminiSchema(d.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}
}

// toGeminiSchema converts a tool schema recursively.
func toGeminiSchema(s *tool.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGeminiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toGeminiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	return out
}

// toGeminiType converts a schema type to Gemini Type.
func toGeminiType(t tool.Type) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	case tool.TypeNumber:
		return genai.TypeNumber
	case tool.TypeInteger:
		return genai.TypeInteger
	case tool.TypeBoolean:
		return genai.TypeBoolean
	case tool.TypeArray:
		return genai.TypeArray
	case tool.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts a complete Gemini response.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*provider.Response, error) {
	candidate, err := firstCandidate(resp)
	if err != nil {
		return nil, err
	}

	var acc provider.Accumulator
	for _, d := range partsToDeltas(candidate) {
		acc.Add(d)
	}
	if u := toUsage(resp.UsageMetadata); u != nil {
		acc.Add(provider.Delta{Usage: u})
	}
	out := acc.Response()

	if candidate.FinishReason == genai.FinishReasonMaxTokens && len(out.Message.ToolCalls) == 0 {
		// Partial response is returned with the error so callers can keep the text.
		return out, &provider.ProviderError{
			Code:    provider.ErrorCodeContextLength,
			Message: "response truncated due to max tokens",
		}
	}
	return out, nil
}

// fromGeminiChunk converts one streamed response into deltas.
// Chunks without candidates carry only usage and yield nothing.
func fromGeminiChunk(resp *genai.GenerateContentResponse) ([]provider.Delta, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil
	}
	c := resp.Candidates[0]
	if c.FinishReason == genai.FinishReasonSafety {
		return nil, blockedError()
	}
	return partsToDeltas(c), nil
}

func firstCandidate(resp *genai.GenerateContentResponse) (*genai.Candidate, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeEmptyResponse,
			Message: "no candidates in response",
		}
	}
	c := resp.Candidates[0]
	if c.FinishReason == genai.FinishReasonSafety {
		return nil, blockedError()
	}
	return c, nil
}

func blockedError() error {
	return &provider.ProviderError{
		Code:    provider.ErrorCodeContentBlocked,
		Message: "content blocked by safety filters",
	}
}

// partsToDeltas extracts text and function calls. Gemini may omit call IDs;
// those are synthesized so results can be paired back.
func partsToDeltas(c *genai.Candidate) []provider.Delta {
	if c.Content == nil {
		return nil
	}
	deltas := make([]provider.Delta, 0, len(c.Content.Parts))
	for _, part := range c.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			deltas = append(deltas, provider.Delta{ToolCall: &provider.ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			}})
		case part.Text != "" && !part.Thought:
			deltas = append(deltas, provider.Delta{Text: part.Text})
		}
	}
	return deltas
}

func toUsage(u *genai.GenerateContentResponseUsageMetadata) *provider.Usage {
	if u == nil {
		return nil
	}
	return &provider.Usage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		return &provider.ProviderError{
			Code:       provider.ErrorCodeNetwork,
			Message:    "network error",
			Underlying: err,
			Retryable:  true,
		}
	}

	switch apiErr.Code {
	case 401, 403:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeAuth,
			Message:    "authentication failed",
			Underlying: err,
		}
	case 429:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeRateLimit,
			Message:    "rate limit exceeded",
			Underlying: err,
			Retryable:  true,
			RetryAfter: parseRetryAfter(apiErr),
		}
	case 400:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeInvalidRequest,
			Message:    fmt.Sprintf("invalid request: %s", apiErr.Message),
			Underlying: err,
		}
	case 500, 502, 503, 504:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeUnavailable,
			Message:    "service unavailable",
			Underlying: err,
			Retryable:  true,
		}
	default:
		return &provider.ProviderError{
			Code:       provider.ErrorCodeNetwork,
			Message:    fmt.Sprintf("API error: %s", apiErr.Message),
			Underlying: err,
			Retryable:  true,
		}
	}
}

// asAPIError accepts both pointer and value forms; the SDK has returned each.
func asAPIError(err error) (*genai.APIError, bool) {
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return ptr, true
	}
	var val genai.APIError
	if errors.As(err, &val) {
		return &val, true
	}
	return nil, false
}

// parseRetryAfter reads google.rpc.RetryInfo's retryDelay ("30s") or a plain
// number of seconds from the error details.
func parseRetryAfter(apiErr *genai.APIError) *time.Duration {
	if apiErr == nil {
		return nil
	}
	for _, detail := range apiErr.Details {
		for _, key := range []string{"retryDelay", "retry_after", "retryAfter"} {
			v, ok := detail[key]
			if !ok {
				continue
			}
			if d, ok := toDuration(v); ok {
				return &d
			}
		}
	}
	return nil
}

func toDuration(v any) (time.Duration, bool) {
	switch x := v.(type) {
	case int:
		return time.Duration(x) * time.Second, true
	case int64:
		return time.Duration(x) * time.Second, true
	case float64:
		return time.Duration(x * float64(time.Second)), true
	case string:
		if d, err := time.ParseDuration(x); err == nil {
			return d, true
		}
		if n, err := strconv.Atoi(x); err == nil {
			return time.Duration(n) * time.Second, true
		}
	}
	return 0, false
}
