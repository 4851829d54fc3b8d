// Package scoring holds the pure trust score arithmetic. Nothing here reads
// the clock or touches storage; callers load the payment and rating sets and
// persist the result.
package scoring

import (
	"math"

	"rentflow-backend/internal/models"
	"rentflow-backend/internal/timeutil"
)

// NeutralScore is what a tenant without rent history gets.
const NeutralScore = 50.0

const (
	paymentWeight = 0.6
	ratingWeight  = 0.4

	pointsOnTime   = 10
	pointsSlight   = 5
	pointsLate     = 0
	pointsDefault  = -10
	slightLateDays = 7
	lateDays       = 14
)

// PaymentPoints scores a single rent payment by punctuality.
func PaymentPoints(p *models.Payment) int {
	if p.Status == models.PaymentUnpaid || p.PaidDate == nil {
		return pointsDefault
	}

	daysLate := timeutil.DaysBetween(p.DueDate, *p.PaidDate)
	switch {
	case daysLate <= 0:
		return pointsOnTime
	case daysLate <= slightLateDays:
		return pointsSlight
	case daysLate <= lateDays:
		return pointsLate
	default:
		return pointsDefault
	}
}

// PaymentScore maps the punctuality points of all rent payments linearly onto
// 0..100. Non-rent payments are ignored.
func PaymentScore(payments []*models.Payment) float64 {
	total, count := 0, 0
	for _, p := range payments {
		if !p.IsRent() {
			continue
		}
		total += PaymentPoints(p)
		count++
	}
	if count == 0 {
		return NeutralScore
	}

	maxPoints := count * pointsOnTime
	minPoints := count * pointsDefault
	span := maxPoints - minPoints
	if span == 0 {
		return NeutralScore
	}
	return float64(total-minPoints) / float64(span) * 100
}

// RatingScore returns average*20. ok is false when there are no ratings,
// which is not the same as a poor score.
func RatingScore(ratings []*models.Rating) (score float64, ok bool) {
	avg, ok := AverageRating(ratings)
	if !ok {
		return 0, false
	}
	return avg * 20, true
}

// AverageRating is the plain mean of the rating scores.
func AverageRating(ratings []*models.Rating) (float64, bool) {
	if len(ratings) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	return float64(sum) / float64(len(ratings)), true
}

// Combine weighs the two sub-scores, rounds to cents and clamps to 0..100.
// Without ratings the payment score carries the full weight.
func Combine(paymentScore, ratingScore float64, hasRatings bool) float64 {
	total := paymentScore
	if hasRatings {
		total = paymentScore*paymentWeight + ratingScore*ratingWeight
	}
	return clamp(Round(total, 2), 0, 100)
}

// TrustScore runs both calculators and combines them.
func TrustScore(payments []*models.Payment, ratings []*models.Rating) float64 {
	rating, ok := RatingScore(ratings)
	return Combine(PaymentScore(payments), rating, ok)
}

// Round rounds half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
