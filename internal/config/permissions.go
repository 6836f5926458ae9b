package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/agentcore/internal/permission"
	"gopkg.in/yaml.v3"
)

const (
	// PermissionsFile is the rule file name, both in the config dir and in
	// <workspace>/.agentcore.
	PermissionsFile = "permissions.yaml"
	// ProjectDir holds per-workspace overrides.
	ProjectDir = ".agentcore"
)

type ruleFile struct {
	Pattern  string `yaml:"pattern"`
	Action   string `yaml:"action"`
	Priority int    `yaml:"priority"`
	Reason   string `yaml:"reason"`
}

type permissionsFile struct {
	DefaultAction     string     `yaml:"default_action"`
	Read              []ruleFile `yaml:"read"`
	Edit              []ruleFile `yaml:"edit"`
	Bash              []ruleFile `yaml:"bash"`
	ExternalDirectory []ruleFile `yaml:"external_directory"`
	McpTools          []ruleFile `yaml:"mcp_tools"`
}

// DefaultPermissions allows reads, asks before edits and commands, and asks
// before touching anything outside the workspace.
func DefaultPermissions() *permission.Config {
	return &permission.Config{
		DefaultAction: permission.ActionAsk,
		Read: []permission.Rule{
			{Pattern: "**", Action: permission.ActionAllow, Reason: "reading the workspace is safe"},
			{Pattern: "**/.env*", Action: permission.ActionAsk, Priority: 10, Reason: "may contain secrets"},
		},
		Edit: []permission.Rule{
			{Pattern: "**/.git/**", Action: permission.ActionDeny, Priority: 10, Reason: "git internals"},
		},
		Bash: []permission.Rule{
			{Pattern: "ls*", Action: permission.ActionAllow, Reason: "read-only listing"},
			{Pattern: "pwd", Action: permission.ActionAllow, Reason: "read-only"},
			{Pattern: "git status*", Action: permission.ActionAllow, Reason: "read-only git"},
			{Pattern: "git diff*", Action: permission.ActionAllow, Reason: "read-only git"},
			{Pattern: "git log*", Action: permission.ActionAllow, Reason: "read-only git"},
			{Pattern: "go test*", Action: permission.ActionAllow, Reason: "tests"},
		},
	}
}

// LoadPermissions merges the user and project permission files over the
// defaults. Project rules are placed first so they win priority ties, and a
// project default_action replaces the user one.
func (l *Loader) LoadPermissions(workspaceRoot string) (*permission.Config, error) {
	cfg := DefaultPermissions()

	var paths []string
	if dir, err := l.Dir(); err == nil {
		paths = append(paths, filepath.Join(dir, PermissionsFile))
	}
	if workspaceRoot != "" {
		paths = append(paths, filepath.Join(workspaceRoot, ProjectDir, PermissionsFile))
	}

	for _, p := range paths {
		data, err := l.fs.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		file, err := ParsePermissions(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		cfg = overlay(cfg, file)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParsePermissions decodes one permissions.yaml document.
func ParsePermissions(data []byte) (*permission.Config, error) {
	var f permissionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}

	out := &permission.Config{}
	if f.DefaultAction != "" {
		a, err := permission.ParseAction(f.DefaultAction)
		if err != nil {
			return nil, err
		}
		out.DefaultAction = a
	}

	sections := []struct {
		cat  permission.Category
		in   []ruleFile
		dest *[]permission.Rule
	}{
		{permission.CategoryRead, f.Read, &out.Read},
		{permission.CategoryEdit, f.Edit, &out.Edit},
		{permission.CategoryBash, f.Bash, &out.Bash},
		{permission.CategoryExternalDirectory, f.ExternalDirectory, &out.ExternalDirectory},
		{permission.CategoryMcpTools, f.McpTools, &out.McpTools},
	}
	for _, s := range sections {
		for i, r := range s.in {
			a, err := permission.ParseAction(r.Action)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", s.cat, i, err)
			}
			*s.dest = append(*s.dest, permission.Rule{
				Pattern:  r.Pattern,
				Action:   a,
				Priority: r.Priority,
				Reason:   r.Reason,
			})
		}
	}
	return out, nil
}

func overlay(base, top *permission.Config) *permission.Config {
	out := &permission.Config{
		DefaultAction:     base.DefaultAction,
		Read:              append(append([]permission.Rule{}, top.Read...), base.Read...),
		Edit:              append(append([]permission.Rule{}, top.Edit...), base.Edit...),
		Bash:              append(append([]permission.Rule{}, top.Bash...), base.Bash...),
		ExternalDirectory: append(append([]permission.Rule{}, top.ExternalDirectory...), base.ExternalDirectory...),
		McpTools:          append(append([]permission.Rule{}, top.McpTools...), base.McpTools...),
	}
	if top.DefaultAction != "" {
		out.DefaultAction = top.DefaultAction
	}
	return out
}
