package services

import (
	"fmt"

	"bluemoon/internal/core"
)

const (
	CompareMonth ComparisonKind = "month"
	CompareYear  ComparisonKind = "year"
)

// ComparisonKind selects the period length of a comparison report.
type ComparisonKind string

func ParseComparisonKind(s string) (ComparisonKind, error) {
	switch ComparisonKind(s) {
	case CompareMonth, CompareYear:
		return ComparisonKind(s), nil
	default:
		return "", fmt.Errorf("unknown comparison kind: %s", s)
	}
}

// ReportAggregator produces the time-windowed financial views. Every method
// is a pure function over a snapshot; there is no shared state between
// invocations. Degenerate denominators resolve to 0 or nil, never errors,
// and empty data yields zeroed DTOs.
type ReportAggregator struct {
	classifier *CompletionClassifier
}

func NewReportAggregator(classifier *CompletionClassifier) *ReportAggregator {
	return &ReportAggregator{classifier: classifier}
}

// Overview sums required, collected and outstanding amounts over the
// mandatory fees active in the window.
func (a *ReportAggregator) Overview(snap Snapshot, w core.Window) core.OverviewReport {
	var report core.OverviewReport
	for _, fee := range snap.MandatoryFeesIn(w) {
		for _, h := range snap.Households {
			st, ok := a.classifier.FeeStatus(snap, h.ID, fee)
			if !ok {
				continue
			}
			report.TotalRequired = report.TotalRequired.Add(st.Expected)
			report.TotalCollected = report.TotalCollected.Add(st.Paid)
			if debt := st.Expected.Amount - st.Paid.Amount; debt > 0 {
				report.TotalDebt.Amount += debt
			}
		}
	}
	report.CompletionRate = safeRate(report.TotalCollected.Amount, report.TotalRequired.Amount)
	return report
}

// ByFeeType breaks the window down per mandatory fee. TotalHouseholds
// counts only households with a nonzero obligation for that fee.
func (a *ReportAggregator) ByFeeType(snap Snapshot, w core.Window) []core.FeeTypeReport {
	var out []core.FeeTypeReport
	for _, fee := range snap.MandatoryFeesIn(w) {
		row := core.FeeTypeReport{FeeID: fee.ID, Name: fee.Name}
		var required int64
		for _, h := range snap.Households {
			st, ok := a.classifier.FeeStatus(snap, h.ID, fee)
			if !ok {
				continue
			}
			row.TotalHouseholds++
			required += st.Expected.Amount
			row.TotalCollected = row.TotalCollected.Add(st.Paid)
			if st.State == core.Paid {
				row.PaidHouseholds++
			}
		}
		row.CompletionRate = safeRate(row.TotalCollected.Amount, required)
		out = append(out, row)
	}
	return out
}

// MonthlyTrend buckets collected amounts by payment timestamp month,
// splitting mandatory dues from voluntary contributions.
func (a *ReportAggregator) MonthlyTrend(snap Snapshot, year int) []core.MonthlyAmounts {
	out := make([]core.MonthlyAmounts, 12)
	for i := range out {
		out[i].Month = i + 1
	}
	for _, p := range snap.Payments {
		if p.PaidAt.UTC().Year() != year {
			continue
		}
		fee, ok := snap.FeeByID(p.FeeID)
		if !ok {
			continue
		}
		bucket := &out[int(p.PaidAt.UTC().Month())-1]
		if fee.Category == core.Mandatory {
			bucket.FixedFee = bucket.FixedFee.Add(p.Amount)
		} else {
			bucket.VoluntaryFee = bucket.VoluntaryFee.Add(p.Amount)
		}
	}
	return out
}

// Comparison pairs the overview of a period with the immediately preceding
// period of equal length. Change percentages are nil when the previous
// baseline is zero; regressions keep their negative sign.
func (a *ReportAggregator) Comparison(snap Snapshot, kind ComparisonKind, year, month int) core.ComparisonReport {
	var current core.Window
	switch kind {
	case CompareYear:
		current = core.YearWindow(year)
	default:
		current = core.MonthWindow(year, month)
	}

	cur := a.Overview(snap, current)
	prev := a.Overview(snap, current.Previous())

	return core.ComparisonReport{
		TotalCollected: core.AmountComparison{
			Current:  cur.TotalCollected,
			Previous: prev.TotalCollected,
			Change:   changePercent(float64(cur.TotalCollected.Amount), float64(prev.TotalCollected.Amount)),
		},
		CompletionRate: core.RateComparison{
			Current:  cur.CompletionRate,
			Previous: prev.CompletionRate,
			Change:   changePercent(cur.CompletionRate, prev.CompletionRate),
		},
	}
}

// HouseholdStatus counts household standings within the window. Households
// with no in-scope fee are excluded rather than counted as unpaid.
func (a *ReportAggregator) HouseholdStatus(snap Snapshot, w core.Window) core.HouseholdStatusReport {
	var report core.HouseholdStatusReport
	fees := snap.MandatoryFeesIn(w)
	for _, h := range snap.Households {
		standing, inScope := a.classifier.Standing(snap, h.ID, fees)
		if !inScope {
			continue
		}
		switch standing {
		case core.Completed:
			report.Completed++
		case core.Incomplete:
			report.Incomplete++
		case core.NotPaid:
			report.NotPaid++
		}
	}
	return report
}

// safeRate divides collected by required, resolving a zero denominator to 0.
func safeRate(collected, required int64) float64 {
	if required == 0 {
		return 0
	}
	return float64(collected) / float64(required)
}

// changePercent returns the percent change from previous to current, or nil
// when the previous baseline is zero.
func changePercent(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	v := (current - previous) / previous * 100
	return &v
}
