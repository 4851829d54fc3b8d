package scoring

import "rentflow-backend/internal/models"

// Breakdown explains a trust score. The sub-scores come from the same
// functions the engine uses.
func Breakdown(payments []*models.Payment, ratings []*models.Rating) models.TrustScoreBreakdown {
	b := models.TrustScoreBreakdown{
		PaymentScore: Round(PaymentScore(payments), 2),
	}

	for _, p := range payments {
		if !p.IsRent() {
			continue
		}
		b.TotalPayments++
		if p.Status == models.PaymentPaid && p.PaidDate != nil && !p.PaidDate.After(p.DueDate) {
			b.OnTimePayments++
		}
	}
	if b.TotalPayments > 0 {
		ratio := Round(float64(b.OnTimePayments)/float64(b.TotalPayments)*100, 1)
		b.PaymentRatio = &ratio
	}

	if avg, ok := AverageRating(ratings); ok {
		avg = Round(avg, 1)
		b.AverageRating = &avg
	}
	if rs, ok := RatingScore(ratings); ok {
		rs = Round(rs, 2)
		b.RatingScore = &rs
	}
	return b
}
