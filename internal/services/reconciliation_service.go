package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rentflow-backend/internal/bankcsv"
	"rentflow-backend/internal/metrics"
	"rentflow-backend/internal/models"
)

const importNoteFmt = "Auto-matched from bank CSV import (batch %s)"

// ReconciliationService applies a landlord's bank export to the open
// payments of their leases.
type ReconciliationService struct {
	Leases      LeaseStore
	Matcher     *PaymentMatcher
	TrustScores *TrustScoreService
	Archiver    Archiver // optional
	Logger      *zap.Logger
	NewBatchID  func() string
}

func NewReconciliationService(leases LeaseStore, matcher *PaymentMatcher, trustScores *TrustScoreService, archiver Archiver, logger *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		Leases:      leases,
		Matcher:     matcher,
		TrustScores: trustScores,
		Archiver:    archiver,
		Logger:      logger,
		NewBatchID:  uuid.NewString,
	}
}

// Import parses raw and matches every row in file order. Matches are
// committed as they happen; the import never rolls back. Only a failure to
// load the landlord's leases aborts it.
func (s *ReconciliationService) Import(ctx context.Context, raw string, landlordID int) (*models.ReconciliationResult, error) {
	batchID := s.NewBatchID()
	log := s.Logger.With(zap.String("batch_id", batchID), zap.Int("landlord_id", landlordID))

	leases, err := s.Leases.ListByLandlord(ctx, landlordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leases of landlord %d: %w", landlordID, err)
	}
	index := NewSymbolIndex(leases)
	note := fmt.Sprintf(importNoteFmt, batchID)

	rows := bankcsv.Parse(raw)
	result := models.NewReconciliationResult(batchID)
	result.TotalRows = len(rows)

	for _, r := range rows {
		row := r.Normalize()

		m, err := s.Matcher.Match(ctx, row, index, note)
		if err != nil {
			log.Error("matching bank row failed", zap.Int("line", row.Line), zap.Error(err))
			m = MatchResult{Outcome: models.OutcomeUnmatched, Reason: models.ReasonStorageError}
		}
		metrics.ReconciliationRows.WithLabelValues(string(m.Outcome)).Inc()

		switch m.Outcome {
		case models.OutcomeMatched:
			result.Matched = append(result.Matched, models.MatchedEntry{
				PaymentID:      m.Payment.ID,
				LeaseID:        m.Lease.ID,
				VariableSymbol: row.VariableSymbol,
				Amount:         row.Amount,
				Date:           row.DateString(),
				Line:           row.Line,
			})
			if _, err := s.TrustScores.Calculate(ctx, m.Lease.TenantID, models.TriggerReconciliation); err != nil {
				log.Error("trust score recalculation failed",
					zap.Int("tenant_id", m.Lease.TenantID),
					zap.Int("payment_id", m.Payment.ID),
					zap.Error(err))
			}
		case models.OutcomeAlreadyPaid:
			result.AlreadyPaid = append(result.AlreadyPaid, models.RejectedEntry{Row: row.Raw, Reason: m.Reason, Line: row.Line})
		default:
			result.Unmatched = append(result.Unmatched, models.RejectedEntry{Row: row.Raw, Reason: m.Reason, Line: row.Line})
		}
	}

	summary := result.Summary()
	log.Info("bank csv import completed",
		zap.Int("total_rows", summary.TotalRows),
		zap.Int("matched", summary.Matched),
		zap.Int("already_paid", summary.AlreadyPaid),
		zap.Int("unmatched", summary.Unmatched),
	)

	s.archive(ctx, log, batchID, raw, result)
	return result, nil
}

func (s *ReconciliationService) archive(ctx context.Context, log *zap.Logger, batchID, raw string, result *models.ReconciliationResult) {
	if s.Archiver == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn("failed to encode import result for archive", zap.Error(err))
		return
	}
	if err := s.Archiver.Archive(ctx, batchID, []byte(raw), data); err != nil {
		log.Warn("failed to archive bank csv import", zap.Error(err))
	}
}
