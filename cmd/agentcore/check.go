package main

import (
	"fmt"

	"github.com/Cyclone1070/agentcore/internal/agent"
	"github.com/Cyclone1070/agentcore/internal/permission"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "check <category> <target>",
		Short: "Show the rule verdict for a target",
		Long: "Evaluates the configured permission rules for one target.\n" +
			"Categories: read, edit, bash, external_directory, mcp_tools.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategory(args[0])
			if err != nil {
				return err
			}
			root, err := resolveWorkspace(workspace)
			if err != nil {
				return err
			}
			ws, err := agent.OpenWorkspace(root)
			if err != nil {
				return err
			}
			perms, err := a.loader.LoadPermissions(ws.Root)
			if err != nil {
				return err
			}
			engine, err := permission.NewEngine(perms)
			if err != nil {
				return err
			}

			d := engine.Evaluate(category, args[1])
			actionColor(d.Action).Fprint(a.stdout, string(d.Action))
			fmt.Fprintf(a.stdout, "  %s\n", d.Reason)
			if d.Rule != nil {
				fmt.Fprintf(a.stdout, "  rule: %q priority %d\n", d.Rule.Pattern, d.Rule.Priority)
			}
			return nil
		},
	}
	workspaceFlag(cmd, &workspace)
	return cmd
}

func parseCategory(s string) (permission.Category, error) {
	for _, c := range permission.Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func actionColor(a permission.Action) *color.Color {
	switch a {
	case permission.ActionAllow:
		return color.New(color.FgGreen, color.Bold)
	case permission.ActionDeny:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}
