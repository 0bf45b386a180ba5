package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket is one upper-inclusive bucket of an aging scheme
type AgingBucket struct {
	Label string
	// Max is the largest day count in the bucket; ignored when Unbounded
	Max       int
	Unbounded bool
}

// AgingScheme is an ordered list of mutually exclusive buckets
type AgingScheme struct {
	Name    string
	Buckets []AgingBucket
}

// The four aging schemes shown on the dashboards
var (
	// PayablesDueAging buckets unpaid invoices by days until due
	PayablesDueAging = AgingScheme{
		Name: "payables_due",
		Buckets: []AgingBucket{
			{Label: "Overdue", Max: -1},
			{Label: "0-7 days", Max: 7},
			{Label: "8-30 days", Max: 30},
			{Label: "31-60 days", Max: 60},
			{Label: "60+ days", Unbounded: true},
		},
	}

	// ReviewAging buckets invoices under review by days since receipt
	ReviewAging = AgingScheme{
		Name: "review",
		Buckets: []AgingBucket{
			{Label: "0-30 days", Max: 30},
			{Label: "31-60 days", Max: 60},
			{Label: "61-90 days", Max: 90},
			{Label: "90+ days", Unbounded: true},
		},
	}

	// ApprovalAging buckets requisitions awaiting approval by days since request
	ApprovalAging = AgingScheme{
		Name: "approval",
		Buckets: []AgingBucket{
			{Label: "0-7 days", Max: 7},
			{Label: "8-15 days", Max: 15},
			{Label: "16-30 days", Max: 30},
			{Label: "30+ days", Unbounded: true},
		},
	}

	// ReleaseAging buckets unreleased disbursements by days since scheduling
	ReleaseAging = AgingScheme{
		Name: "release",
		Buckets: []AgingBucket{
			{Label: "0-7 days", Max: 7},
			{Label: "8-15 days", Max: 15},
			{Label: "16-30 days", Max: 30},
			{Label: "30+ days", Unbounded: true},
		},
	}
)

// AgingResult is the population of one non-empty bucket
type AgingResult struct {
	Label  string          `json:"label"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// DatedAmount is one row to classify: a reference date and its amount
type DatedAmount struct {
	Date   time.Time
	Amount decimal.Decimal
}

// BucketFor returns the index of the first bucket whose upper bound holds days
func (s AgingScheme) BucketFor(days int) int {
	for i, b := range s.Buckets {
		if b.Unbounded || days <= b.Max {
			return i
		}
	}
	return len(s.Buckets) - 1
}

// Classify folds day counts into buckets keeping scheme order and omitting
// empty buckets.
func (s AgingScheme) Classify(days []int, amounts []decimal.Decimal) []AgingResult {
	counts := make([]int64, len(s.Buckets))
	sums := make([]decimal.Decimal, len(s.Buckets))
	for i, d := range days {
		idx := s.BucketFor(d)
		counts[idx]++
		if i < len(amounts) {
			sums[idx] = sums[idx].Add(amounts[i])
		}
	}

	results := make([]AgingResult, 0, len(s.Buckets))
	for i, b := range s.Buckets {
		if counts[i] == 0 {
			continue
		}
		results = append(results, AgingResult{Label: b.Label, Count: counts[i], Amount: sums[i]})
	}
	return results
}

// AgeSince classifies rows by whole days elapsed from their date to now
func (s AgingScheme) AgeSince(rows []DatedAmount, now time.Time) []AgingResult {
	days := make([]int, len(rows))
	amounts := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		days[i] = DaysBetween(r.Date, now)
		amounts[i] = r.Amount
	}
	return s.Classify(days, amounts)
}

// AgeUntil classifies rows by whole days remaining from now to their date
func (s AgingScheme) AgeUntil(rows []DatedAmount, now time.Time) []AgingResult {
	days := make([]int, len(rows))
	amounts := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		days[i] = DaysBetween(now, r.Date)
		amounts[i] = r.Amount
	}
	return s.Classify(days, amounts)
}
