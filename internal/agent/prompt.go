package agent

import (
	"fmt"

	"github.com/Cyclone1070/agentcore/internal/subagent"
)

const rootPrompt = `You are a coding agent working in the repository at %s.
Use the tools to inspect and change files and to run commands. Read a file before editing it.
Delegate independent research to sub-agents with spawn_agent when it saves work.
When the task is done, answer with a short summary of what you changed.`

const explorePrompt = `You are a read-only research sub-agent working in the repository at %s.
Investigate the task with the tools you have and report findings. You cannot modify anything.`

const generalPrompt = `You are a sub-agent working in the repository at %s.
Complete the delegated task with the available tools, then report what you did.`

func systemPrompt(root string) string {
	return fmt.Sprintf(rootPrompt, root)
}

func subAgentPrompt(t subagent.Type, root string) string {
	if t == subagent.TypeExplore {
		return fmt.Sprintf(explorePrompt, root)
	}
	return fmt.Sprintf(generalPrompt, root)
}
