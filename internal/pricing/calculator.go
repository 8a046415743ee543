// Package pricing computes rental cost breakdowns. All money is integer
// cents; percentages round half away from zero to the nearest cent.
package pricing

import (
	"time"
)

const (
	// PlatformFeePercent is the flat marketplace fee applied to the
	// pre-fee running total.
	PlatformFeePercent = 10

	// TaxPercent is applied to the same pre-fee running total as the
	// platform fee, not compounded on it. This mirrors the live billing
	// behavior; stakeholders have not confirmed the intended tax base,
	// so the observed one is kept.
	TaxPercent = 8

	// OperatorHoursPerDay is the fixed billable hours for the operator
	// add-on.
	OperatorHoursPerDay = 8
)

// InsuranceTier selects the daily insurance rate.
type InsuranceTier string

const (
	TierBasic   InsuranceTier = "basic"
	TierPremium InsuranceTier = "premium"
)

// Input is the pricing configuration for one quote.
type Input struct {
	DailyRateCents int64
	Start          time.Time
	End            time.Time

	IncludeOperator         bool
	OperatorHourlyRateCents int64

	IncludeInsurance           bool
	InsuranceTier              InsuranceTier
	InsuranceBasicDailyCents   int64
	InsurancePremiumDailyCents int64
}

// Quote is an itemized cost breakdown.
type Quote struct {
	DurationDays       int   `json:"duration_days"`
	ToolCostCents      int64 `json:"tool_cost_cents"`
	OperatorCostCents  int64 `json:"operator_cost_cents"`
	InsuranceCostCents int64 `json:"insurance_cost_cents"`
	PlatformFeeCents   int64 `json:"platform_fee_cents"`
	TaxCents           int64 `json:"tax_cents"`
	TotalCents         int64 `json:"total_cents"`
}

// DurationDays returns the rental duration as the ceiling of end minus start
// in whole days. Non-positive spans return zero or a negative value; callers
// must treat anything below one day as "no valid rental".
func DurationDays(start, end time.Time) int {
	span := end.Sub(start)
	days := int(span / (24 * time.Hour))
	if span%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Compute produces the cost breakdown for the given input. A non-positive
// duration yields an all-zero quote; there are no other error conditions.
func Compute(in Input) Quote {
	days := DurationDays(in.Start, in.End)
	if days <= 0 {
		return Quote{}
	}

	q := Quote{DurationDays: days}
	q.ToolCostCents = in.DailyRateCents * int64(days)

	if in.IncludeOperator {
		q.OperatorCostCents = in.OperatorHourlyRateCents * int64(days) * OperatorHoursPerDay
	}

	if in.IncludeInsurance {
		daily := in.InsuranceBasicDailyCents
		if in.InsuranceTier == TierPremium {
			daily = in.InsurancePremiumDailyCents
		}
		q.InsuranceCostCents = daily * int64(days)
	}

	running := q.ToolCostCents + q.OperatorCostCents + q.InsuranceCostCents
	q.PlatformFeeCents = percentOf(running, PlatformFeePercent)
	q.TaxCents = percentOf(running, TaxPercent)
	q.TotalCents = running + q.PlatformFeeCents + q.TaxCents

	return q
}

func percentOf(amount int64, percent int64) int64 {
	return (amount*percent + 50) / 100
}
