package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"breathein/internal/api"
	"breathein/internal/daemonctl"
	"breathein/internal/daemonrun"
	"breathein/internal/ipc"
	"breathein/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startCheckLLM bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Run the upload scheduler in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			running, pid, _ := daemonctl.ProcessInfo(ctx.socketPath())
			if running {
				return fmt.Errorf("scheduler already running (pid %d)", pid)
			}
			err = daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:   ctx.logLevel(),
				SocketPath: ctx.socketPath(),
				CheckLLM:   startCheckLLM,
				Out:        cmd.ErrOrStderr(),
			})
			if errors.Is(err, daemonrun.ErrPreflight) {
				return fmt.Errorf("%w (run `breathein status` for details)", err)
			}
			return err
		},
	}
	startCmd.Flags().BoolVar(&startCheckLLM, "check-llm", false, "Verify the LLM endpoint before starting")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a running scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.configValue(), ctx.socketPath(), 10*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Scheduler is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Scheduler did not exit; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(stdout, "Scheduler stopped")
			return nil
		},
	}

	var statusJSON, statusCheckLLM bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show scheduler state, requirements, and the last attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), ctx.configValue(),
				preflight.Options{CheckLLM: statusCheckLLM})
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd, snap)
			}
			renderStatus(cmd.OutOrStdout(), snap, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVar(&statusCheckLLM, "check-llm", false, "Verify the LLM endpoint")

	triggerCmd := &cobra.Command{
		Use:   "trigger",
		Short: "Ask the running scheduler to upload now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TriggerNow()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				if !resp.Triggered {
					return errors.New("trigger rejected")
				}
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd, triggerCmd}
}

func renderStatus(out io.Writer, snap *daemonctl.Snapshot, colorize bool) {
	d := snap.Daemon
	for _, line := range renderSectionHeader("Scheduler", colorize) {
		fmt.Fprintln(out, line)
	}
	if d.Running {
		fmt.Fprintln(out, renderStatusLine("breathein", statusOK, fmt.Sprintf("Running (pid %d)", d.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("breathein", statusWarn, "Not running (run `breathein start`)", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Next upload", statusInfo, d.StatusLine, colorize))
	fmt.Fprintln(out, renderStatusLine("Slots", statusInfo, joinSlots(d.Slots), colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Requirements", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range snap.Checks {
		fmt.Fprintln(out, renderStatusLine(check.Name, statusKindFromSeverity(check.Severity), check.Detail, colorize))
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Last Attempt", colorize) {
		fmt.Fprintln(out, line)
	}
	if d.LastAttempt == nil {
		fmt.Fprintln(out, renderStatusLine("Attempt", statusInfo, "No uploads yet", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Attempt", statusKindFromSeverity(d.LastAttempt.Status), describeAttempt(*d.LastAttempt), colorize))
}

func describeAttempt(a api.Attempt) string {
	detail := fmt.Sprintf("%s slot %s at %s", a.Status, a.Slot, a.Time)
	switch {
	case a.Error != "":
		detail += ": " + a.Error
	case a.URL != "":
		detail += ": " + a.URL
	}
	return detail
}

func joinSlots(slots []string) string {
	if len(slots) == 0 {
		return "none"
	}
	out := slots[0]
	for _, s := range slots[1:] {
		out += ", " + s
	}
	return out
}
