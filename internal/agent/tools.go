package agent

import (
	"fmt"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/tool"
	"github.com/Cyclone1070/agentcore/internal/tool/directory"
	"github.com/Cyclone1070/agentcore/internal/tool/file"
	"github.com/Cyclone1070/agentcore/internal/tool/search"
	"github.com/Cyclone1070/agentcore/internal/tool/service/executor"
	"github.com/Cyclone1070/agentcore/internal/tool/service/fs"
	"github.com/Cyclone1070/agentcore/internal/tool/service/git"
	"github.com/Cyclone1070/agentcore/internal/tool/service/path"
	"github.com/Cyclone1070/agentcore/internal/tool/shell"
)

// Workspace holds the canonical root the tools operate on.
type Workspace struct {
	Root  string
	Paths *path.Resolver
}

// OpenWorkspace canonicalises root.
func OpenWorkspace(root string) (*Workspace, error) {
	canonical, err := path.CanonicaliseRoot(root)
	if err != nil {
		return nil, err
	}
	return &Workspace{Root: canonical, Paths: path.NewResolver(canonical)}, nil
}

// BuiltinTools creates the file, directory, search and shell tools for ws.
func BuiltinTools(ws *Workspace, cfg *config.Config) ([]tool.Tool, error) {
	osfs := fs.NewOSFileSystem()
	ignore, err := git.NewIgnoreMatcher(ws.Root)
	if err != nil {
		return nil, fmt.Errorf("load gitignore: %w", err)
	}

	var tools []tool.Tool
	tools = append(tools, file.New(osfs, ws.Paths, fs.NewChecksumStore(), cfg).All()...)
	tools = append(tools, directory.New(osfs, ws.Paths, ignore, cfg).All()...)
	tools = append(tools, search.New(osfs, ws.Paths, ignore, cfg).SearchContent())
	tools = append(tools, shell.New(osfs, executor.NewLocal(cfg), ws.Paths, cfg).Shell())
	return tools, nil
}
