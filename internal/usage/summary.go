package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaySummary aggregates the calls made on one calendar day.
type DaySummary struct {
	Date   string
	Calls  int
	Tokens int
	Cost   decimal.Decimal
}

// Summary is the report shown by `breathein usage`.
type Summary struct {
	Session            Session
	TotalCost          decimal.Decimal
	Today              DaySummary
	AverageCostPerCall decimal.Decimal
	// MonthlyProjection is today's cost times 30; zero when there were no
	// calls today.
	MonthlyProjection decimal.Decimal
}

// Summarize computes the report for session as seen at now. Calls are
// bucketed by calendar day in now's location.
func Summarize(session Session, now time.Time) Summary {
	loc := now.Location()
	today := now.Format(time.DateOnly)

	day := DaySummary{Date: today, Cost: decimal.Zero}
	for _, call := range session.Calls {
		cost := decimal.NewFromFloat(call.CallCost)
		if call.Timestamp.In(loc).Format(time.DateOnly) != today {
			continue
		}
		day.Calls++
		day.Tokens += call.TotalTokens
		day.Cost = day.Cost.Add(cost)
	}

	summary := Summary{
		Session:            session,
		TotalCost:          decimal.NewFromFloat(session.TotalCost).Round(CostPlaces),
		Today:              day,
		AverageCostPerCall: decimal.Zero,
		MonthlyProjection:  decimal.Zero,
	}
	if session.CallsCount > 0 {
		summary.AverageCostPerCall = summary.TotalCost.Div(decimal.NewFromInt(int64(session.CallsCount))).Round(CostPlaces)
	}
	if day.Calls > 0 {
		summary.MonthlyProjection = day.Cost.Mul(decimal.NewFromInt(30)).Round(2)
	}
	return summary
}

// Summary reports the tracker's current session.
func (t *Tracker) Summary() Summary {
	return Summarize(t.Session(), t.now())
}

// Recent returns the last n calls, oldest first. n <= 0 returns all calls.
func Recent(session Session, n int) []Call {
	calls := session.Calls
	if n > 0 && len(calls) > n {
		calls = calls[len(calls)-n:]
	}
	return append([]Call(nil), calls...)
}

// SumCallCosts adds the per-call costs exactly.
func SumCallCosts(calls []Call) decimal.Decimal {
	sum := decimal.Zero
	for _, call := range calls {
		sum = sum.Add(decimal.NewFromFloat(call.CallCost))
	}
	return sum.Round(CostPlaces)
}
