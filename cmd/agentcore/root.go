package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/provider"
	"github.com/Cyclone1070/agentcore/internal/provider/gemini"
	"github.com/Cyclone1070/agentcore/internal/tool/mcptool"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// app holds the process's collaborators so commands can be tested.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	loader *config.Loader

	newProvider func(ctx context.Context, cfg *config.Config) (provider.Provider, error)
	connectMCP  func(ctx context.Context, servers map[string]config.MCPServer) ([]*mcptool.Server, error)
}

func defaultApp() *app {
	return &app{
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		loader:      config.NewLoader(),
		newProvider: geminiProvider,
		connectMCP:  mcptool.ConnectAll,
	}
}

func geminiProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("no API key: set AGENTCORE_PROVIDER_API_KEY or GEMINI_API_KEY")
	}
	client, err := gemini.NewSDKClient(ctx, cfg.Provider.APIKey)
	if err != nil {
		return nil, err
	}
	policy := provider.DefaultRetryPolicy()
	policy.MaxRetries = cfg.Provider.MaxRetries
	return provider.NewRetrying(gemini.New(client, cfg.Provider.Model), policy), nil
}

func newRootCmd(a *app) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "agentcore",
		Short:         "Autonomous coding agent with rule-based permissions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(a.stderr, logLevel)
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newCheckCmd(a))
	return root
}

func setupLogging(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func workspaceFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "workspace", "w", "", "workspace root (default: current directory)")
}

func resolveWorkspace(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return os.Getwd()
}
