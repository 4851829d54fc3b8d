package models

import "time"

var RatingCategories = []string{"apartment_condition", "communication", "rules", "overall"}

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

type Rating struct {
	ID          int       `json:"id"`
	LeaseID     int       `json:"lease_id"`
	RatedBy     int       `json:"rated_by"`
	RatedByName string    `json:"rated_by_name,omitempty"` // Joined from users table
	Category    string    `json:"category"`
	Score       int       `json:"score"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateRatingRequest struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
	Comment  string `json:"comment"`
}

func IsRatingCategory(c string) bool {
	for _, known := range RatingCategories {
		if known == c {
			return true
		}
	}
	return false
}
