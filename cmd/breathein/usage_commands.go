package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"breathein/internal/usage"
)

const defaultRecentCalls = 5

type usageJSON struct {
	TotalCalls         int             `json:"totalCalls"`
	TotalTokens        int             `json:"totalTokens"`
	PromptTokens       int             `json:"promptTokens"`
	CompletionTokens   int             `json:"completionTokens"`
	TotalCost          decimal.Decimal `json:"totalCost"`
	AverageCostPerCall decimal.Decimal `json:"averageCostPerCall"`
	SessionStart       time.Time       `json:"sessionStart,omitzero"`
	Today              usageDayJSON    `json:"today"`
	MonthlyProjection  decimal.Decimal `json:"monthlyProjection"`
	Recent             []usage.Call    `json:"recent"`
}

type usageDayJSON struct {
	Date   string          `json:"date"`
	Calls  int             `json:"calls"`
	Tokens int             `json:"tokens"`
	Cost   decimal.Decimal `json:"cost"`
}

func newUsageCommand(ctx *commandContext) *cobra.Command {
	var recent int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show generative API token usage and cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			session, err := usage.Load(cfg.UsageFile(), cfg.Location())
			if err != nil {
				return err
			}
			summary := usage.Summarize(session, time.Now().In(cfg.Location()))
			calls := usage.Recent(session, recent)
			if asJSON {
				return writeJSON(cmd, toUsageJSON(summary, calls))
			}
			renderUsage(cmd.OutOrStdout(), summary, calls)
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", defaultRecentCalls, "Number of recent calls to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.AddCommand(newUsageWatchCommand(ctx))
	return cmd
}

func newUsageWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow new API calls as they are recorded",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			err = watchUsage(cmd.Context(), cmd.OutOrStdout(), cfg.UsageFile(), interval, cfg.Location())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval")
	return cmd
}

func toUsageJSON(summary usage.Summary, calls []usage.Call) usageJSON {
	session := summary.Session
	if calls == nil {
		calls = []usage.Call{}
	}
	return usageJSON{
		TotalCalls:         session.CallsCount,
		TotalTokens:        session.TotalTokens,
		PromptTokens:       session.TotalPromptTokens,
		CompletionTokens:   session.TotalCompletionTokens,
		TotalCost:          summary.TotalCost,
		AverageCostPerCall: summary.AverageCostPerCall,
		SessionStart:       session.StartTime.Time,
		Today: usageDayJSON{
			Date:   summary.Today.Date,
			Calls:  summary.Today.Calls,
			Tokens: summary.Today.Tokens,
			Cost:   summary.Today.Cost,
		},
		MonthlyProjection: summary.MonthlyProjection,
		Recent:            calls,
	}
}

func renderUsage(out io.Writer, summary usage.Summary, calls []usage.Call) {
	session := summary.Session
	if session.CallsCount == 0 {
		fmt.Fprintln(out, "No API calls recorded yet")
		return
	}
	fmt.Fprintf(out, "Session started: %s\n", session.StartTime.Format(time.DateTime))
	fmt.Fprintf(out, "Total calls:     %d\n", session.CallsCount)
	fmt.Fprintf(out, "Total tokens:    %d (prompt %d, completion %d)\n",
		session.TotalTokens, session.TotalPromptTokens, session.TotalCompletionTokens)
	fmt.Fprintf(out, "Total cost:      $%s\n", summary.TotalCost.StringFixed(usage.CostPlaces))
	fmt.Fprintf(out, "Avg per call:    $%s\n\n", summary.AverageCostPerCall.StringFixed(usage.CostPlaces))

	fmt.Fprintf(out, "Today (%s): %d calls, %d tokens, $%s\n", summary.Today.Date,
		summary.Today.Calls, summary.Today.Tokens, summary.Today.Cost.StringFixed(usage.CostPlaces))
	if summary.MonthlyProjection.IsPositive() {
		fmt.Fprintf(out, "Monthly projection: $%s\n", summary.MonthlyProjection.StringFixed(2))
	}

	if len(calls) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderCallsTable(calls))
}

func renderCallsTable(calls []usage.Call) string {
	rows := make([][]string, 0, len(calls))
	for _, call := range calls {
		rows = append(rows, []string{
			call.Timestamp.Format(time.DateTime),
			call.Operation,
			call.Model,
			strconv.Itoa(call.TotalTokens),
			decimal.NewFromFloat(call.CallCost).StringFixed(usage.CostPlaces),
		})
	}
	return renderTable(
		[]string{"Time", "Operation", "Model", "Tokens", "Cost"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	)
}

// watchUsage polls path and prints calls appended since the previous poll,
// each followed by the running average cost per call. A shrinking session
// (the file was reset) restarts the count.
func watchUsage(ctx context.Context, out io.Writer, path string, interval time.Duration, loc *time.Location) error {
	session, err := usage.Load(path, loc)
	if err != nil {
		return err
	}
	seen := len(session.Calls)
	fmt.Fprintf(out, "Watching %s, %d calls so far (Ctrl+C to stop)\n", path, seen)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		session, err = usage.Load(path, loc)
		if err != nil {
			fmt.Fprintf(out, "read usage: %v\n", err)
			continue
		}
		if len(session.Calls) < seen {
			seen = 0
		}
		for i := seen; i < len(session.Calls); i++ {
			call := session.Calls[i]
			average := usage.SumCallCosts(session.Calls[:i+1]).Div(decimal.NewFromInt(int64(i + 1))).Round(usage.CostPlaces)
			fmt.Fprintf(out, "%s  %-20s %6d tokens  $%s  (avg $%s over %d calls)\n",
				call.Timestamp.In(loc).Format(time.TimeOnly),
				call.Operation,
				call.TotalTokens,
				decimal.NewFromFloat(call.CallCost).StringFixed(usage.CostPlaces),
				average.StringFixed(usage.CostPlaces),
				i+1,
			)
		}
		seen = len(session.Calls)
	}
}
