package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"breathein/internal/api"
	"breathein/internal/uploadlog"
)

const defaultLogRows = 10

func newLogCommand(ctx *commandContext) *cobra.Command {
	var all, asJSON bool
	cmd := &cobra.Command{
		Use:   "log [N]",
		Short: "Show recent upload attempts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := defaultLogRows
			if len(args) == 1 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil || parsed < 1 {
					return fmt.Errorf("invalid row count %q", args[0])
				}
				n = parsed
			}
			entries, err := readUploadLog(ctx)
			if err != nil {
				return err
			}
			if !all {
				entries = uploadlog.Tail(entries, n)
			}
			if asJSON {
				rows := make([]api.Attempt, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, api.FromEntry(entry))
				}
				return writeJSON(cmd, rows)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No uploads logged yet")
				return nil
			}
			fmt.Fprintln(out, renderLogTable(entries))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Show every logged attempt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderLogTable(entries []uploadlog.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		result := entry.YouTubeURL
		if !entry.Succeeded() {
			result = entry.ErrorMessage
		}
		rows = append(rows, []string{
			entry.Timestamp,
			entry.Slot,
			string(entry.Status),
			truncate(entry.Title, 40),
			strconv.FormatFloat(entry.VideoSizeMB, 'f', 2, 64),
			truncate(result, 60),
		})
	}
	return renderTable(
		[]string{"Time", "Slot", "Status", "Title", "MB", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

type statsJSON struct {
	Total           int           `json:"total"`
	Successful      int           `json:"successful"`
	Failed          int           `json:"failed"`
	SuccessRate     float64       `json:"successRate"`
	UploadedMB      float64       `json:"uploadedMb"`
	Slots           []slotJSON    `json:"slots"`
	RecentSuccesses []api.Attempt `json:"recentSuccesses"`
}

type slotJSON struct {
	Slot    string  `json:"slot"`
	Total   int     `json:"total"`
	Success int     `json:"success"`
	Rate    float64 `json:"rate"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize upload history",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readUploadLog(ctx)
			if err != nil {
				return err
			}
			stats := uploadlog.ComputeStats(entries)
			if asJSON {
				return writeJSON(cmd, toStatsJSON(stats))
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func toStatsJSON(stats uploadlog.Stats) statsJSON {
	out := statsJSON{
		Total:           stats.Total,
		Successful:      stats.Successful,
		Failed:          stats.Failed,
		SuccessRate:     uploadlog.Round2(stats.SuccessRate),
		UploadedMB:      stats.UploadedMB,
		Slots:           make([]slotJSON, 0, len(stats.Slots)),
		RecentSuccesses: make([]api.Attempt, 0, len(stats.RecentSuccesses)),
	}
	for _, slot := range stats.Slots {
		out.Slots = append(out.Slots, slotJSON{Slot: slot.Slot, Total: slot.Total, Success: slot.Success, Rate: uploadlog.Round2(slot.Rate())})
	}
	for _, entry := range stats.RecentSuccesses {
		out.RecentSuccesses = append(out.RecentSuccesses, api.FromEntry(entry))
	}
	return out
}

func renderStats(out io.Writer, stats uploadlog.Stats) {
	if stats.Total == 0 {
		fmt.Fprintln(out, "No uploads logged yet")
		return
	}
	fmt.Fprintf(out, "Total attempts: %d\n", stats.Total)
	fmt.Fprintf(out, "Successful:     %d\n", stats.Successful)
	fmt.Fprintf(out, "Failed:         %d\n", stats.Failed)
	fmt.Fprintf(out, "Success rate:   %.1f%%\n", stats.SuccessRate)
	fmt.Fprintf(out, "Uploaded:       %.2f MB\n\n", stats.UploadedMB)

	rows := make([][]string, 0, len(stats.Slots))
	for _, slot := range stats.Slots {
		rows = append(rows, []string{
			slot.Slot,
			strconv.Itoa(slot.Success),
			strconv.Itoa(slot.Total),
			fmt.Sprintf("%.1f%%", slot.Rate()),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Slot", "Success", "Total", "Rate"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))

	if len(stats.RecentSuccesses) == 0 {
		return
	}
	fmt.Fprintln(out, "\nRecent successes:")
	for _, entry := range stats.RecentSuccesses {
		fmt.Fprintf(out, "  %s  %s  %s\n", entry.Timestamp, entry.Slot, entry.YouTubeURL)
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the upload history as a text report",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readUploadLog(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			target := strings.TrimSpace(output)
			if target == "" {
				target = uploadlog.ExportFileName(now)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create export directory: %w", err)
			}
			file, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create export: %w", err)
			}
			if err := uploadlog.Export(file, entries, now); err != nil {
				file.Close()
				return fmt.Errorf("write export: %w", err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Export file path (default upload_log_export_<timestamp>.txt)")
	return cmd
}

func readUploadLog(ctx *commandContext) ([]uploadlog.Entry, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return uploadlog.New(cfg.UploadLogPath()).ReadAll()
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
