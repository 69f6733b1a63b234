package domain

import "time"

// PeriodStatus indicates whether a fiscal period still accepts postings.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// FiscalPeriod is a bounded date range within a fiscal year. Closing a
// period freezes postings dated inside it; periods close in chronological
// order and may only be reopened while no later period is closed.
type FiscalPeriod struct {
	PeriodID   string       `json:"periodID"` // Primary key (UUID)
	Name       string       `json:"name"`     // e.g. "2024-01"
	FiscalYear string       `json:"fiscalYear"`
	StartDate  time.Time    `json:"startDate"` // Inclusive
	EndDate    time.Time    `json:"endDate"`   // Inclusive
	Status     PeriodStatus `json:"status"`
	ClosedBy   string       `json:"closedBy,omitempty"`
	ClosedAt   *time.Time   `json:"closedAt,omitempty"`
	AuditFields
}

// IsOpen reports whether the period still accepts postings.
func (p *FiscalPeriod) IsOpen() bool {
	return p.Status == PeriodOpen
}

// Contains reports whether d falls inside the period's date range.
// Comparison is by calendar date; time-of-day is ignored.
func (p *FiscalPeriod) Contains(d time.Time) bool {
	day := d.Truncate(24 * time.Hour)
	return !day.Before(p.StartDate.Truncate(24*time.Hour)) && !day.After(p.EndDate.Truncate(24*time.Hour))
}
