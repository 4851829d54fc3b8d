package services

import "errors"

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrLeaseNotFound      = errors.New("lease not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrRatingNotFound     = errors.New("rating not found")
	ErrPaymentAlreadyPaid = errors.New("payment is already paid")
	ErrPaymentConflict    = errors.New("payment was modified concurrently, please retry")
	ErrInvalidPayment     = errors.New("invalid payment")
	ErrDuplicateRating    = errors.New("you already rated this category for this lease")
	ErrLeaseActive        = errors.New("cannot rate an active lease, end the lease first")
	ErrInvalidRating      = errors.New("invalid rating")
	ErrNotRatingAuthor    = errors.New("you can only delete your own ratings")
)
