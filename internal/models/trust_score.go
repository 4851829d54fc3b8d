package models

// Recalculation triggers, used as metric labels and log fields.
const (
	TriggerMarkPaid       = "mark_paid"
	TriggerReconciliation = "reconciliation"
	TriggerOverdue        = "overdue"
	TriggerRating         = "rating"
	TriggerPaymentChange  = "payment_change"
	TriggerOnDemand       = "on_demand"
)

type TrustScoreReport struct {
	TenantID   int                 `json:"tenant_id"`
	TenantName string              `json:"tenant_name"`
	TrustScore float64             `json:"trust_score"`
	Breakdown  TrustScoreBreakdown `json:"breakdown"`
}

// TrustScoreBreakdown is display data. PaymentScore and RatingScore are the
// same sub-scores the engine combined.
type TrustScoreBreakdown struct {
	TotalPayments  int      `json:"total_payments"`
	OnTimePayments int      `json:"on_time_payments"`
	PaymentRatio   *float64 `json:"payment_ratio"`  // percent, nil without rent payments
	AverageRating  *float64 `json:"average_rating"` // 1-5, nil without ratings
	PaymentScore   float64  `json:"payment_score"`
	RatingScore    *float64 `json:"rating_score"`
}
