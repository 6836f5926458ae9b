package loop

import (
	"context"

	"github.com/Cyclone1070/agentcore/internal/provider"
)

// WindowCompactor keeps system messages, the first user message and the most
// recent messages. The window never starts on a tool-result message, so every
// tool result it keeps still has its calls.
type WindowCompactor struct {
	MaxMessages int
}

func (w WindowCompactor) Compact(ctx context.Context, messages []provider.Message) ([]provider.Message, error) {
	if w.MaxMessages <= 0 || len(messages) <= w.MaxMessages {
		return messages, nil
	}

	var head []provider.Message
	firstUser := -1
	for i, m := range messages {
		if m.Role == provider.RoleSystem {
			head = append(head, m)
			continue
		}
		if m.Role == provider.RoleUser && firstUser < 0 {
			firstUser = i
			head = append(head, m)
		}
	}

	start := len(messages) - w.MaxMessages + len(head)
	if start <= firstUser {
		start = firstUser + 1
	}
	for start < len(messages) && messages[start].Role == provider.RoleTool {
		start++
	}

	out := make([]provider.Message, 0, len(head)+len(messages)-start)
	out = append(out, head...)
	for _, m := range messages[start:] {
		if m.Role == provider.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
