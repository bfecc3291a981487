package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"devlaunch/internal/bootstrap"
	actiondto "devlaunch/internal/modules/action/dto"
	actionin "devlaunch/internal/modules/action/port/in"
	runnerinadapter "devlaunch/internal/modules/runner/adapter/in"
	runnerdto "devlaunch/internal/modules/runner/dto"
	"devlaunch/internal/platform/config"
)

const shutdownTimeout = 10 * time.Second

// exitError carries a child exit code up to main. A nil err exits quietly.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			if exit.err != nil {
				_, _ = fmt.Fprintln(os.Stderr, exit.err)
			}
			os.Exit(exit.code)
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// childExit keeps the exit code of a failed child so the CLI mirrors it.
func childExit(code int, err error) error {
	if err != nil && code > 0 {
		return exitError{code: code, err: err}
	}
	return err
}

func newRootCmd() *cobra.Command {
	var rootPath string

	root := &cobra.Command{
		Use:           "devlaunch",
		Short:         "Project script launcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(rootPath)
		},
	}
	root.PersistentFlags().StringVar(&rootPath, "root", ".", "project root directory")

	root.AddCommand(newTUICmd(&rootPath))
	root.AddCommand(newActionsCmd(&rootPath))
	root.AddCommand(newRunCmd(&rootPath))
	root.AddCommand(newExecCmd(&rootPath))
	root.AddCommand(newHistoryCmd(&rootPath))
	root.AddCommand(newSelfCheckCmd(&rootPath))
	root.AddCommand(newPluginCmd(&rootPath))
	return root
}

func loadApp(rootPath string) (*bootstrap.App, error) {
	cfg, err := config.New(rootPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

func runTUI(rootPath string) error {
	app, err := loadApp(rootPath)
	if err != nil {
		return err
	}
	defer app.Close()
	return bootstrap.RunTUI(app)
}

func newTUICmd(rootPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(*rootPath)
		},
	}
}

func newActionsCmd(rootPath *string) *cobra.Command {
	actions := &cobra.Command{Use: "actions", Short: "Action table commands"}
	actions.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List detected actions and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()
			list, err := app.ActionCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no actions")
				return nil
			}
			printActions(cmd.OutOrStdout(), list)
			return nil
		},
	})
	return actions
}

func printActions(w io.Writer, list []actiondto.ActionInfo) {
	for _, a := range list {
		_, _ = fmt.Fprintf(w, "[%s] %s :: key=%s\n", a.Category, a.Label, a.Key)
		for _, o := range a.Options {
			state := "OK"
			if !o.Exists {
				state = "MISSING"
			}
			_, _ = fmt.Fprintf(w, "  - %s: %s (%s)\n", o.Label, o.Path, state)
		}
		if p := a.Parameter; p != nil && len(p.Choices) > 0 {
			_, _ = fmt.Fprintf(w, "  - param: %s -> %s\n", p.Label, strings.Join(p.Choices, ", "))
		}
		if a.Destructive {
			_, _ = fmt.Fprintln(w, "  - destructive: true")
		}
		if a.Background {
			_, _ = fmt.Fprintln(w, "  - background: true")
		}
	}
}

func newRunCmd(rootPath *string) *cobra.Command {
	var option, param string
	var yes bool

	run := &cobra.Command{
		Use:   "run <key>",
		Short: "Run an action by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			out := cmd.OutOrStdout()
			sink := runnerinadapter.NewWriterSink(out)
			input := actiondto.DispatchInput{Key: args[0], Option: option, Param: param, Confirmed: yes}

			result, err := app.ActionCLI.Dispatch(ctx, input, sink)
			if errors.Is(err, actionin.ErrConfirmationRequired) {
				ok, promptErr := confirm(cmd.InOrStdin(), out, result.Command)
				if promptErr != nil {
					return promptErr
				}
				if !ok {
					_, _ = fmt.Fprintln(out, "Cancelled.")
					return nil
				}
				input.Confirmed = true
				result, err = app.ActionCLI.Dispatch(ctx, input, sink)
			}
			if err != nil {
				return childExit(result.ExitCode, err)
			}
			if result.Background {
				return follow(ctx, app, result.HandleID, out)
			}
			return nil
		},
	}
	run.Flags().StringVar(&option, "option", "", "option label when the action has several scripts")
	run.Flags().StringVar(&param, "param", "", "parameter value")
	run.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation of destructive actions")
	return run
}

// confirm asks on the terminal. Without a terminal a destructive action
// needs --yes.
func confirm(in io.Reader, out io.Writer, command actiondto.ResolvedCommand) (bool, error) {
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return false, fmt.Errorf("%w: pass --yes to run %s non-interactively", actionin.ErrConfirmationRequired, command.Key)
	}
	_, _ = fmt.Fprintf(out, "This action is potentially destructive.\n\nAction: %s :: %s\n$ %s\n\nContinue? [y/N] ",
		command.Category, command.Label, strings.Join(command.Argv, " "))
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// follow prints queued output of a background run until it exits or the
// user interrupts, in which case every run is stopped.
func follow(ctx context.Context, app *bootstrap.App, handleID string, out io.Writer) error {
	ticker := time.NewTicker(app.Config.PollInterval)
	defer ticker.Stop()
	for {
		for _, line := range app.RunnerCLI.Poll(ctx) {
			_, _ = fmt.Fprintln(out, line.Text)
		}
		status, err := app.RunnerCLI.ExitStatus(ctx, handleID)
		if err != nil {
			return err
		}
		if !status.Running {
			for _, line := range app.RunnerCLI.Poll(ctx) {
				_, _ = fmt.Fprintln(out, line.Text)
			}
			switch {
			case status.ExitCode > 0:
				return exitError{code: status.ExitCode}
			case status.ExitCode < 0:
				return exitError{code: 1}
			}
			return nil
		}
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.RunnerCLI.Shutdown(shutdownCtx)
		case <-ticker.C:
		}
	}
}

func newExecCmd(rootPath *string) *cobra.Command {
	var label, dir string
	exec := &cobra.Command{
		Use:   "exec -- <argv...>",
		Short: "Run an arbitrary command through the process bridge",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if dir == "" {
				dir = app.Config.RootPath
			}
			if label == "" {
				label = args[0]
			}
			result, err := app.RunnerCLI.RunBlocking(ctx, runnerdto.RunInput{
				Label: label,
				Argv:  args,
				Dir:   dir,
				Check: true,
			}, runnerinadapter.NewWriterSink(cmd.OutOrStdout()))
			return childExit(result.ExitCode, err)
		},
	}
	exec.Flags().StringVar(&label, "label", "", "label recorded in the run history")
	exec.Flags().StringVar(&dir, "dir", "", "working directory (default: project root)")
	return exec
}

func newHistoryCmd(rootPath *string) *cobra.Command {
	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()
			entries, err := app.RunnerCLI.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}
			for _, e := range entries {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\texit=%d\t%s\t%s\n",
					e.StartedAt.Local().Format(time.DateTime), e.Mode, e.State, e.ExitCode, e.Label, e.Command)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return history
}

func newSelfCheckCmd(rootPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "self-check",
		Short: "Validate tools, files, actions and plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()
			code, err := app.DoctorCLI.SelfCheck(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if code != 0 {
				return exitError{code: code}
			}
			return nil
		},
	}
}

func newPluginCmd(rootPath *string) *cobra.Command {
	plugin := &cobra.Command{Use: "plugin", Short: "Plugin operations"}
	plugin.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plugin manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()
			plugins, err := app.PluginCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(plugins) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins configured")
				return nil
			}
			for _, p := range plugins {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t binary=%s\n", p.Name, p.Version, p.Enabled, p.Binary)
			}
			return nil
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate plugin checksums and lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()
			results, err := app.PluginCLI.Doctor(cmd.Context())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins configured")
				return nil
			}
			for _, r := range results {
				if r.Error != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t error=%s\n", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK, r.Error)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t\n", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
			}
			return nil
		},
	})

	var pluginName string
	actions := &cobra.Command{
		Use:   "actions",
		Short: "List actions contributed by a plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*rootPath)
			if err != nil {
				return err
			}
			defer app.Close()
			list, err := app.PluginCLI.ListActions(cmd.Context(), pluginName)
			if err != nil {
				return err
			}
			for _, a := range list {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\t%s\t%s\n", a.PluginName, a.ID, a.Title, strings.Join(a.Argv, " "))
			}
			return nil
		},
	}
	actions.Flags().StringVar(&pluginName, "name", "", "plugin name")
	_ = actions.MarkFlagRequired("name")
	plugin.AddCommand(actions)
	return plugin
}
