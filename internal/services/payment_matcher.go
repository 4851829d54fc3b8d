package services

import (
	"context"
	"errors"
	"fmt"

	"rentflow-backend/internal/bankcsv"
	"rentflow-backend/internal/models"
	"rentflow-backend/internal/repositories"
	"rentflow-backend/internal/timeutil"
)

const maxSettleAttempts = 3

// SymbolIndex maps a normalized variable symbol to the landlord's lease.
type SymbolIndex map[string]*models.Lease

// NewSymbolIndex indexes leases by normalized symbol. Leases without a
// symbol are skipped; on a collision the earlier lease in the slice wins.
func NewSymbolIndex(leases []*models.Lease) SymbolIndex {
	idx := make(SymbolIndex, len(leases))
	for _, l := range leases {
		vs := bankcsv.NormalizeSymbol(l.VariableSymbol)
		if vs == "" {
			continue
		}
		if _, taken := idx[vs]; taken {
			continue
		}
		idx[vs] = l
	}
	return idx
}

// MatchResult is the outcome of one bank row. Payment and Lease are set
// only for matched rows.
type MatchResult struct {
	Outcome models.Outcome
	Reason  string
	Lease   *models.Lease
	Payment *models.Payment
}

// PaymentMatcher settles a bank row against the earliest unpaid payment of
// the lease its variable symbol points to.
type PaymentMatcher struct {
	Payments PaymentStore
	Clock    Clock
}

func NewPaymentMatcher(payments PaymentStore, clock Clock) *PaymentMatcher {
	return &PaymentMatcher{Payments: payments, Clock: clock}
}

// Match resolves one row. A settlement that loses a race is retried
// against the next candidate. The returned error is always a storage error;
// business outcomes are reported through MatchResult.
func (m *PaymentMatcher) Match(ctx context.Context, row bankcsv.BankRow, index SymbolIndex, note string) (MatchResult, error) {
	vs := row.VariableSymbol
	if vs == "" {
		return MatchResult{Outcome: models.OutcomeUnmatched, Reason: models.ReasonMissingSymbol}, nil
	}

	lease, ok := index[vs]
	if !ok {
		return MatchResult{Outcome: models.OutcomeUnmatched, Reason: models.ReasonSymbolNotFound + vs}, nil
	}

	paidDate := timeutil.Today(m.Clock())
	if row.Date != nil {
		paidDate = *row.Date
	}

	for attempt := 0; attempt < maxSettleAttempts; attempt++ {
		payment, err := m.findUnpaid(ctx, lease.ID, vs)
		if err != nil {
			return MatchResult{}, err
		}
		if payment == nil {
			break
		}

		settled, err := m.Payments.Settle(ctx, models.Settlement{
			PaymentID:      payment.ID,
			Version:        payment.Version,
			PaidDate:       paidDate,
			VariableSymbol: vs,
			Note:           note,
			FromStatuses:   []string{models.PaymentUnpaid},
		})
		if err != nil {
			return MatchResult{}, fmt.Errorf("failed to settle payment %d: %w", payment.ID, err)
		}
		if !settled {
			continue
		}

		payment.Status = models.PaymentPaid
		payment.PaidDate = &paidDate
		payment.VariableSymbol = vs
		payment.Note = models.AppendNote(payment.Note, note)
		payment.Version++
		return MatchResult{Outcome: models.OutcomeMatched, Lease: lease, Payment: payment}, nil
	}

	return MatchResult{Outcome: models.OutcomeAlreadyPaid, Reason: models.ReasonNoUnpaid + vs, Lease: lease}, nil
}

// findUnpaid looks for an unpaid payment carrying the symbol first and falls
// back to any unpaid payment on the lease. It returns nil when neither
// exists.
func (m *PaymentMatcher) findUnpaid(ctx context.Context, leaseID int, vs string) (*models.Payment, error) {
	for _, symbol := range []string{vs, ""} {
		p, err := m.Payments.FindEarliestUnpaid(ctx, leaseID, symbol)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up unpaid payment on lease %d: %w", leaseID, err)
		}
	}
	return nil, nil
}
