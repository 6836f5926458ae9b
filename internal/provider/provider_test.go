package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_AssemblesDeltas(t *testing.T) {
	var acc Accumulator
	acc.Add(Delta{Text: "Hel"})
	acc.Add(Delta{Text: "lo"})
	acc.Add(Delta{ToolCall: &ToolCall{ID: "c1", Name: "read_file"}})
	acc.Add(Delta{Usage: &Usage{TotalTokens: 42}})

	resp := acc.Response()
	assert.Equal(t, RoleAssistant, resp.Message.Role)
	assert.Equal(t, "Hello", resp.Message.Content)
	assert.Equal(t, []ToolCall{{ID: "c1", Name: "read_file"}}, resp.Message.ToolCalls)
	assert.Equal(t, 42, resp.Usage.TotalTokens)
}

func TestProviderError_IsAndUnwrap(t *testing.T) {
	underlying := errors.New("429 too many")
	err := fmt.Errorf("provider.Generate: %w", &ProviderError{
		Code:       ErrorCodeRateLimit,
		Message:    "rate limit exceeded",
		Underlying: underlying,
		Retryable:  true,
	})

	assert.ErrorIs(t, err, ErrRateLimit)
	assert.ErrorIs(t, err, underlying)
	assert.NotErrorIs(t, err, ErrAuthentication)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRetryable(underlying))
	assert.Contains(t, err.Error(), "rate_limit: rate limit exceeded (429 too many)")
}
