package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentTypeRent      = "rent"
	PaymentTypeUtilities = "utilities"
	PaymentTypeDeposit   = "deposit"
	PaymentTypeOther     = "other"
)

const (
	PaymentUnpaid  = "unpaid"
	PaymentPaid    = "paid"
	PaymentOverdue = "overdue"
)

// Payment is one obligation on a lease. Status is paid exactly when
// PaidDate is set.
type Payment struct {
	ID             int             `json:"id"`
	LeaseID        int             `json:"lease_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
	PaidDate       *time.Time      `json:"paid_date"`
	Status         string          `json:"status"`
	VariableSymbol string          `json:"variable_symbol,omitempty"`
	Note           string          `json:"note,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (p *Payment) IsRent() bool {
	return p.Type == PaymentTypeRent
}

// Settlement moves a payment to paid. It only applies while the stored row
// still has Version and one of FromStatuses.
type Settlement struct {
	PaymentID      int
	Version        int
	PaidDate       time.Time
	VariableSymbol string // empty keeps the stored symbol
	Note           string // appended to the existing note
	FromStatuses   []string
}

type CreatePaymentRequest struct {
	LeaseID        int             `json:"lease_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        string          `json:"due_date"`
	PaidDate       string          `json:"paid_date"`
	Status         string          `json:"status"`
	VariableSymbol string          `json:"variable_symbol"`
	Note           string          `json:"note"`
}

// OverdueCandidate is an unpaid payment past its grace period together with
// the tenant whose score it affects.
type OverdueCandidate struct {
	PaymentID int
	Version   int
	TenantID  int
}

// AppendNote adds a line to an existing note.
func AppendNote(existing, line string) string {
	if existing == "" {
		return line
	}
	if line == "" {
		return existing
	}
	return existing + "\n" + line
}
