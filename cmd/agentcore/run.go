package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Cyclone1070/agentcore/internal/agent"
	"github.com/Cyclone1070/agentcore/internal/approval"
	"github.com/Cyclone1070/agentcore/internal/config"
	"github.com/Cyclone1070/agentcore/internal/permission"
	"github.com/Cyclone1070/agentcore/internal/risk"
	"github.com/Cyclone1070/agentcore/internal/tool/mcptool"
	"github.com/Cyclone1070/agentcore/internal/ui"
	"github.com/Cyclone1070/agentcore/internal/workflow"
	"github.com/Cyclone1070/agentcore/internal/workflow/loop"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type runOptions struct {
	workspace string
	message   string
	yes       bool
	no        bool
	plan      bool
	maxTurns  int
	model     string
	noStream  bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run the agent on a task",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.message == "" {
				opts.message = strings.Join(args, " ")
			}
			if strings.TrimSpace(opts.message) == "" {
				return fmt.Errorf("a prompt is required: pass it as arguments or with --message")
			}
			if opts.yes && opts.no {
				return fmt.Errorf("--yes and --no are mutually exclusive")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, opts)
		},
	}
	workspaceFlag(cmd, &opts.workspace)
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "task prompt")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "approve every call that would ask")
	cmd.Flags().BoolVar(&opts.no, "no", false, "reject every call that would ask")
	cmd.Flags().BoolVar(&opts.plan, "plan", false, "plan before working")
	cmd.Flags().IntVar(&opts.maxTurns, "max-turns", 0, "override the turn budget")
	cmd.Flags().StringVar(&opts.model, "model", "", "override the model")
	cmd.Flags().BoolVar(&opts.noStream, "no-stream", false, "wait for whole responses instead of streaming")
	return cmd
}

func (a *app) run(ctx context.Context, opts runOptions) error {
	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	applyRunOverrides(cfg, opts)

	root, err := resolveWorkspace(opts.workspace)
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

	prov, err := a.newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	tools, err := agent.BuiltinTools(ws, cfg)
	if err != nil {
		return err
	}
	servers, err := a.connectMCP(ctx, cfg.MCP.Servers)
	if err != nil {
		return err
	}
	defer mcptool.CloseAll(servers)
	for _, s := range servers {
		remote, err := s.Tools(ctx)
		if err != nil {
			return err
		}
		tools = append(tools, remote...)
	}

	styles := ui.NewStyles(cfg.UI)
	events := make(chan workflow.Event, 64)
	printer := ui.NewPrinter(a.stderr, styles)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		printer.Consume(context.Background(), events)
	}()

	ag := agent.New(cfg, agent.Deps{
		Provider: prov,
		Risk:     risk.NewClassifier(engine, ws.Paths),
		Approver: a.approver(opts, styles),
		Events:   events,
	}, ws.Root, tools)

	res, runErr := a.drive(ctx, ag, cfg, opts.message)
	close(events)
	<-printed
	if runErr != nil {
		return runErr
	}
	a.report(res)
	return nil
}

func applyRunOverrides(cfg *config.Config, opts runOptions) {
	if opts.plan {
		cfg.Loop.PlanFirst = true
	}
	if opts.maxTurns > 0 {
		cfg.Loop.MaxTurns = opts.maxTurns
	}
	if opts.model != "" {
		cfg.Provider.Model = opts.model
	}
	if opts.noStream {
		cfg.Provider.Stream = false
	}
}

func (a *app) approver(opts runOptions, styles ui.Styles) approval.Approver {
	switch {
	case opts.yes:
		return approval.Static(true, "")
	case opts.no:
		return approval.Static(false, "rejected by --no")
	default:
		return ui.NewPrompter(a.stdin, a.stderr, styles)
	}
}

// drive runs the agent, streaming text to stdout when enabled and rendering
// the final answer as markdown otherwise.
func (a *app) drive(ctx context.Context, ag *agent.Agent, cfg *config.Config, prompt string) (*loop.Result, error) {
	if !cfg.Provider.Stream {
		res, err := ag.Run(ctx, prompt)
		if err != nil {
			return nil, err
		}
		a.printAnswer(cfg, res.Text)
		return res, nil
	}

	var res *loop.Result
	for d, err := range ag.Stream(ctx, prompt) {
		if err != nil {
			return nil, err
		}
		if d.Text != "" {
			io.WriteString(a.stdout, d.Text)
		}
		if d.ToolCall != nil {
			fmt.Fprintln(a.stdout)
		}
		if d.Result != nil {
			res = d.Result
		}
	}
	fmt.Fprintln(a.stdout)
	return res, nil
}

func (a *app) printAnswer(cfg *config.Config, text string) {
	r, err := ui.NewRenderer(cfg.UI.MarkdownStyle, 100)
	if err != nil {
		fmt.Fprintln(a.stdout, text)
		return
	}
	fmt.Fprint(a.stdout, r.Render(text))
}

func (a *app) report(res *loop.Result) {
	if res == nil {
		return
	}
	c := color.New(color.FgGreen)
	if loop.IsLimit(res.Outcome) {
		c = color.New(color.FgYellow)
	}
	c.Fprintf(a.stderr, "%s", res.Outcome)
	fmt.Fprintf(a.stderr, " · %d turns · %d tokens\n", res.TurnsUsed, res.TokensUsed)
}
