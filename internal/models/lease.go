package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LeaseActive     = "active"
	LeaseEnded      = "ended"
	LeaseTerminated = "terminated"
)

type Lease struct {
	ID             int              `json:"id"`
	PropertyID     int              `json:"property_id"`
	TenantID       int              `json:"tenant_id"`
	LandlordID     int              `json:"landlord_id"` // Joined from properties
	StartDate      time.Time        `json:"start_date"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	RentAmount     decimal.Decimal  `json:"rent_amount"`
	DepositAmount  *decimal.Decimal `json:"deposit_amount,omitempty"`
	VariableSymbol string           `json:"variable_symbol,omitempty"`
	Status         string           `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (l *Lease) IsActive() bool {
	return l.Status == LeaseActive
}
