package models

import "github.com/shopspring/decimal"

func init() {
	// amounts go out as JSON numbers; quoted input is still accepted
	decimal.MarshalJSONWithoutQuotes = true
}

// Outcome names the bucket a bank row ends up in.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	// OutcomeAlreadyPaid means nothing unpaid was left on the lease to apply
	// the row against. It does not prove the row was a duplicate.
	OutcomeAlreadyPaid Outcome = "already_paid"
	OutcomeUnmatched   Outcome = "unmatched"
)

const (
	ReasonMissingSymbol  = "Missing variable symbol"
	ReasonSymbolNotFound = "Variable symbol not found: "
	ReasonNoUnpaid       = "No unpaid payment found for VS: "
	ReasonStorageError   = "Storage error while matching"
)

type MatchedEntry struct {
	PaymentID      int             `json:"payment_id"`
	LeaseID        int             `json:"lease_id"`
	VariableSymbol string          `json:"variable_symbol"`
	Amount         decimal.Decimal `json:"amount"`
	Date           *string         `json:"date"` // YYYY-MM-DD as read from the file, null if unparsable
	Line           int             `json:"line"`
}

// RejectedEntry echoes the original row so the landlord can see why it
// was not applied.
type RejectedEntry struct {
	Row    map[string]string `json:"row"`
	Reason string            `json:"reason"`
	Line   int               `json:"line"`
}

type ReconciliationResult struct {
	BatchID     string          `json:"batch_id"`
	TotalRows   int             `json:"total_rows"`
	Matched     []MatchedEntry  `json:"matched"`
	AlreadyPaid []RejectedEntry `json:"already_paid"`
	Unmatched   []RejectedEntry `json:"unmatched"`
}

type ReconciliationSummary struct {
	TotalRows   int `json:"total_rows"`
	Matched     int `json:"matched"`
	AlreadyPaid int `json:"already_paid"`
	Unmatched   int `json:"unmatched"`
}

func NewReconciliationResult(batchID string) *ReconciliationResult {
	return &ReconciliationResult{
		BatchID:     batchID,
		Matched:     []MatchedEntry{},
		AlreadyPaid: []RejectedEntry{},
		Unmatched:   []RejectedEntry{},
	}
}

func (r *ReconciliationResult) Summary() ReconciliationSummary {
	return ReconciliationSummary{
		TotalRows:   r.TotalRows,
		Matched:     len(r.Matched),
		AlreadyPaid: len(r.AlreadyPaid),
		Unmatched:   len(r.Unmatched),
	}
}
