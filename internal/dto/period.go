package dto

import (
	"time"

	"github.com/thesenegalesehitch/erp-ledger/internal/core/domain"
)

// CreatePeriodRequest defines the payload for creating a fiscal period.
type CreatePeriodRequest struct {
	Name       string    `json:"name" binding:"required"`
	FiscalYear string    `json:"fiscalYear" binding:"required"`
	StartDate  time.Time `json:"startDate" binding:"required" time_format:"2006-01-02"`
	EndDate    time.Time `json:"endDate" binding:"required" time_format:"2006-01-02"`
}

// PeriodResponse defines the API representation of a fiscal period.
type PeriodResponse struct {
	PeriodID   string              `json:"periodID"`
	Name       string              `json:"name"`
	FiscalYear string              `json:"fiscalYear"`
	StartDate  time.Time           `json:"startDate"`
	EndDate    time.Time           `json:"endDate"`
	Status     domain.PeriodStatus `json:"status"`
	ClosedBy   string              `json:"closedBy,omitempty"`
	ClosedAt   *time.Time          `json:"closedAt,omitempty"`
}

// ToPeriodResponse maps a domain period to its API representation.
func ToPeriodResponse(p *domain.FiscalPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:   p.PeriodID,
		Name:       p.Name,
		FiscalYear: p.FiscalYear,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Status:     p.Status,
		ClosedBy:   p.ClosedBy,
		ClosedAt:   p.ClosedAt,
	}
}

// ListPeriodsResponse lists all fiscal periods in chronological order.
type ListPeriodsResponse struct {
	Periods []PeriodResponse `json:"periods"`
}
