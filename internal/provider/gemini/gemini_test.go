package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Cyclone1070/agentcore/internal/provider"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGenerate_TextResponse(t *testing.T) {
	var gotModel string
	client := &mockClient{
		generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{textCandidate("Hello there!")},
				UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
					PromptTokenCount:     10,
					CandidatesTokenCount: 5,
					TotalTokenCount:      15,
				},
			}, nil
		},
	}

	p := New(client, "gemini-mock")
	resp, err := p.Generate(context.Background(), &provider.Request{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "Hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "gemini-mock", gotModel)
	assert.Equal(t, provider.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "Hello there!", resp.Message.Content)
	assert.Empty(t, resp.Message.ToolCalls)
	assert.Equal(t, provider.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, resp.Usage)
}

func TestGenerate_ToolCall_KeepsOrSynthesizesIDs(t *testing.T) {
	client := &mockClient{
		generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{
						{FunctionCall: &genai.FunctionCall{ID: "fc-1", Name: "read_file", Args: map[string]any{"path": "foo.txt"}}},
						{FunctionCall: &genai.FunctionCall{Name: "list_directory"}},
					}},
					FinishReason: genai.FinishReasonStop,
				}},
			}, nil
		},
	}

	resp, err := New(client, "gemini-mock").Generate(context.Background(), &provider.Request{})
	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 2)
	assert.Equal(t, "fc-1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "foo.txt", resp.Message.ToolCalls[0].Arguments["path"])
	assert.True(t, strings.HasPrefix(resp.Message.ToolCalls[1].ID, "call_"))
}

func TestGenerate_RequestConversion(t *testing.T) {
	temp := float32(0.2)
	var gotContents []*genai.Content
	var gotConfig *genai.GenerateContentConfig
	client := &mockClient{
		generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotContents, gotConfig = contents, config
			return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{textCandidate("ok")}}, nil
		},
	}

	req := &provider.Request{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "be brief"},
			{Role: provider.RoleUser, Content: "read it"},
			{Role: provider.RoleAssistant, ToolCalls: []provider.ToolCall{{ID: "c1", Name: "read_file", Arguments: map[string]any{"path": "a"}}}},
			{Role: provider.RoleTool, ToolResults: []provider.ToolResult{
				{CallID: "c1", Name: "read_file", Content: "data", Success: true},
				{CallID: "c2", Name: "shell", Content: "permission denied", Success: false},
			}},
		},
		Tools: []tool.Declaration{{
			Name: "read_file",
			Parameters: &tool.Schema{
				Type: tool.TypeObject,
				Properties: map[string]*tool.Schema{
					"path":  {Type: tool.TypeString},
					"lines": {Type: tool.TypeArray, Items: &tool.Schema{Type: tool.TypeInteger}},
				},
				Required: []string{"path"},
			},
		}},
		Options: provider.Options{Temperature: &temp, MaxOutputTokens: 256},
	}

	_, err := New(client, "gemini-mock").Generate(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, gotConfig.SystemInstruction)
	assert.Equal(t, "be brief", gotConfig.SystemInstruction.Parts[0].Text)
	assert.Equal(t, &temp, gotConfig.Temperature)
	assert.Equal(t, int32(256), gotConfig.MaxOutputTokens)

	require.Len(t, gotContents, 3)
	assert.Equal(t, "user", gotContents[0].Role)
	assert.Equal(t, "model", gotContents[1].Role)
	assert.Equal(t, "c1", gotContents[1].Parts[0].FunctionCall.ID)
	assert.Equal(t, "user", gotContents[2].Role)
	require.Len(t, gotContents[2].Parts, 2)
	assert.Equal(t, map[string]any{"output": "data"}, gotContents[2].Parts[0].FunctionResponse.Response)
	assert.Equal(t, map[string]any{"error": "permission denied"}, gotContents[2].Parts[1].FunctionResponse.Response)
	assert.Equal(t, "c2", gotContents[2].Parts[1].FunctionResponse.ID)

	require.Len(t, gotConfig.Tools, 1)
	fd := gotConfig.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, genai.TypeObject, fd.Parameters.Type)
	assert.Equal(t, genai.TypeInteger, fd.Parameters.Properties["lines"].Items.Type)
	assert.Equal(t, []string{"path"}, fd.Parameters.Required)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      provider.ErrorCode
		retryable bool
	}{
		{"auth", &genai.APIError{Code: 401, Message: "bad key"}, provider.ErrorCodeAuth, false},
		{"forbidden", &genai.APIError{Code: 403}, provider.ErrorCodeAuth, false},
		{"rate limit", &genai.APIError{Code: 429}, provider.ErrorCodeRateLimit, true},
		{"bad request", &genai.APIError{Code: 400, Message: "bad"}, provider.ErrorCodeInvalidRequest, false},
		{"unavailable", &genai.APIError{Code: 503}, provider.ErrorCodeUnavailable, true},
		{"other api", &genai.APIError{Code: 418}, provider.ErrorCodeNetwork, true},
		{"network", errors.New("connection reset"), provider.ErrorCodeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{
				generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return nil, tt.err
				},
			}
			_, err := New(client, "m").Generate(context.Background(), &provider.Request{})

			var pErr *provider.ProviderError
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, tt.code, pErr.Code)
			assert.Equal(t, tt.retryable, pErr.Retryable)
		})
	}
}

func TestGenerate_SafetyBlocked(t *testing.T) {
	client := &mockClient{
		generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}}, nil
		},
	}
	_, err := New(client, "m").Generate(context.Background(), &provider.Request{})
	assert.ErrorIs(t, err, provider.ErrContentBlocked)
}

func TestGenerate_NoCandidates(t *testing.T) {
	client := &mockClient{
		generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}
	_, err := New(client, "m").Generate(context.Background(), &provider.Request{})
	assert.ErrorIs(t, err, provider.ErrEmptyResponse)
}

func TestGenerate_MaxTokens_ReturnsPartial(t *testing.T) {
	client := &mockClient{
		generateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			c := textCandidate("partial")
			c.FinishReason = genai.FinishReasonMaxTokens
			return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{c}}, nil
		},
	}
	resp, err := New(client, "m").Generate(context.Background(), &provider.Request{})
	assert.ErrorIs(t, err, provider.ErrContextLengthExceeded)
	require.NotNil(t, resp)
	assert.Equal(t, "partial", resp.Message.Content)
}

func TestStream_YieldsDeltasThenUsage(t *testing.T) {
	client := &mockClient{
		streamChunks: []*genai.GenerateContentResponse{
			{Candidates: []*genai.Candidate{textCandidate("Hel")}},
			{Candidates: []*genai.Candidate{textCandidate("lo")}},
			{
				Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{ID: "x", Name: "shell"}},
				}}}},
				UsageMetadata: &genai.GenerateContentResponseUsageMetadata{TotalTokenCount: 9},
			},
		},
	}

	var acc provider.Accumulator
	n := 0
	for d, err := range New(client, "m").Stream(context.Background(), &provider.Request{}) {
		require.NoError(t, err)
		acc.Add(d)
		n++
	}

	assert.Equal(t, 4, n)
	resp := acc.Response()
	assert.Equal(t, "Hello", resp.Message.Content)
	assert.Equal(t, []provider.ToolCall{{ID: "x", Name: "shell"}}, resp.Message.ToolCalls)
	assert.Equal(t, 9, resp.Usage.TotalTokens)
}

func TestStream_ErrorStopsIteration(t *testing.T) {
	client := &mockClient{
		streamChunks: []*genai.GenerateContentResponse{{Candidates: []*genai.Candidate{textCandidate("a")}}},
		streamErr:    &genai.APIError{Code: 503},
	}

	var errs []error
	for _, err := range New(client, "m").Stream(context.Background(), &provider.Request{}) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], provider.ErrServiceUnavailable)
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		details  []map[string]any
		expected *time.Duration
	}{
		{"empty", nil, nil},
		{"rpc duration string", []map[string]any{{"retryDelay": "30s"}}, durationPtr(30 * time.Second)},
		{"seconds string", []map[string]any{{"retryDelay": "75"}}, durationPtr(75 * time.Second)},
		{"json number", []map[string]any{{"retry_after": 12.0}}, durationPtr(12 * time.Second)},
		{"int", []map[string]any{{"retryAfter": 5}}, durationPtr(5 * time.Second)},
		{"garbage", []map[string]any{{"retryDelay": "soon"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseRetryAfter(&genai.APIError{Code: 429, Details: tt.details}))
		})
	}
	assert.Nil(t, parseRetryAfter(nil))
}

func TestNew_RequiresDependencies(t *testing.T) {
	assert.Panics(t, func() { New(nil, "m") })
	assert.Panics(t, func() { New(&mockClient{}, "") })
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
