package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"breathein/internal/schedule"
	"breathein/internal/workflow"
)

// newTestCommands builds the manual one-shot commands. They share the upload
// lock with the scheduler, so a run in progress makes them fail fast.
func newTestCommands(ctx *commandContext) []*cobra.Command {
	var count int
	videoCmd := &cobra.Command{
		Use:   "test-video",
		Short: "Generate videos without uploading them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			return ctx.withRunner(func(components *workflow.Components) error {
				results, err := components.Runner.GenerateOnly(cmd.Context(), count)
				out := cmd.OutOrStdout()
				for _, result := range results {
					fmt.Fprintf(out, "Generated %s in %s\n", result.Path, result.Elapsed.Round(time.Millisecond))
					fmt.Fprintf(out, "  Caption: %s\n", result.Caption)
				}
				fmt.Fprintf(out, "%d of %d videos generated\n", len(results), count)
				return err
			})
		},
	}
	videoCmd.Flags().IntVarP(&count, "count", "n", 1, "Number of videos to generate")

	uploadCmd := &cobra.Command{
		Use:   "test-upload",
		Short: "Upload the newest generated video now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(components *workflow.Components) error {
				runner := components.Runner
				slot := runner.Schedule().Current(time.Now())
				attempt, err := runner.UploadLatest(cmd.Context(), slot)
				return reportAttempt(cmd.OutOrStdout(), attempt, err)
			})
		},
	}

	allCmd := &cobra.Command{
		Use:   "test-all",
		Short: "Generate and upload a video for the current time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(components *workflow.Components) error {
				runner := components.Runner
				slot := runner.Schedule().Current(time.Now())
				attempt, err := runner.RunSlot(cmd.Context(), slot, workflow.RunOptions{Force: true})
				return reportAttempt(cmd.OutOrStdout(), attempt, err)
			})
		},
	}

	schedulerCmd := &cobra.Command{
		Use:   "test-scheduler",
		Short: "Show the slots, the next upload, and slots eligible for catch-up",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sched, err := schedule.New(cfg.Schedule.Slots, cfg.Location())
			if err != nil {
				return err
			}
			renderSchedule(cmd.OutOrStdout(), sched, time.Now(), cfg.CatchupWindow())
			return nil
		},
	}

	return []*cobra.Command{videoCmd, uploadCmd, allCmd, schedulerCmd}
}

func renderSchedule(out io.Writer, sched *schedule.Schedule, now time.Time, window time.Duration) {
	zone := now.In(sched.Location).Format("MST")
	fmt.Fprintf(out, "Now: %s\n", now.In(sched.Location).Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Slots (%s): %s\n", zone, joinSlots(sched.Strings()))
	next := sched.Next(now)
	fmt.Fprintf(out, "Next: %s (%s)\n", next.At.Format("2006-01-02 15:04 MST"), next.Slot)
	fmt.Fprintln(out, sched.StatusLine(now))
	missed := sched.Missed(now, window)
	if len(missed) == 0 {
		fmt.Fprintf(out, "No slots missed within the last %s\n", window)
		return
	}
	for _, occ := range missed {
		fmt.Fprintf(out, "Missed: %s (%s ago)\n", occ.Slot, now.Sub(occ.At).Round(time.Minute))
	}
}

func reportAttempt(out io.Writer, attempt workflow.Attempt, err error) error {
	if errors.Is(err, workflow.ErrBusy) {
		return fmt.Errorf("an upload is already running; try again later")
	}
	if attempt.Skipped {
		fmt.Fprintf(out, "Slot %s already uploaded today\n", attempt.Slot)
		return nil
	}
	entry := attempt.Entry
	if attempt.Succeeded() {
		fmt.Fprintf(out, "Uploaded %q for slot %s\n", entry.Title, attempt.Slot)
		fmt.Fprintf(out, "  %s\n", entry.YouTubeURL)
		if entry.ErrorMessage != "" {
			fmt.Fprintf(out, "  Warning: %s\n", entry.ErrorMessage)
		}
		return nil
	}
	if err == nil {
		err = errors.New(entry.ErrorMessage)
	}
	return fmt.Errorf("upload for slot %s failed: %w", attempt.Slot, err)
}
