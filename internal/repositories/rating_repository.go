package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"rentflow-backend/internal/models"
)

type RatingRepository struct {
	DB *pgxpool.Pool
}

func NewRatingRepository(db *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{DB: db}
}

const ratingSelect = `
	SELECT r.id, r.lease_id, r.rated_by, COALESCE(u.name, ''), r.category, r.score,
	       COALESCE(r.comment, ''), r.created_at
	FROM ratings r
	LEFT JOIN users u ON u.id = r.rated_by`

func scanRating(row interface{ Scan(...any) error }) (*models.Rating, error) {
	var rt models.Rating
	err := row.Scan(&rt.ID, &rt.LeaseID, &rt.RatedBy, &rt.RatedByName, &rt.Category, &rt.Score,
		&rt.Comment, &rt.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

func (r *RatingRepository) list(ctx context.Context, query string, args ...any) ([]*models.Rating, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*models.Rating
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}

// Create returns ErrDuplicate when the (lease, author, category) unique
// index rejects the row.
func (r *RatingRepository) Create(ctx context.Context, rt *models.Rating) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO ratings(lease_id, rated_by, category, score, comment)
         VALUES($1, $2, $3, $4, NULLIF($5::text, ''))
         RETURNING id, created_at`,
		rt.LeaseID, rt.RatedBy, rt.Category, rt.Score, rt.Comment,
	).Scan(&rt.ID, &rt.CreatedAt)
	return translate(err)
}

func (r *RatingRepository) Get(ctx context.Context, id int) (*models.Rating, error) {
	return scanRating(r.DB.QueryRow(ctx, ratingSelect+` WHERE r.id=$1`, id))
}

func (r *RatingRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM ratings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RatingRepository) ListByLease(ctx context.Context, leaseID int) ([]*models.Rating, error) {
	return r.list(ctx, ratingSelect+` WHERE r.lease_id=$1 ORDER BY r.created_at, r.id`, leaseID)
}

func (r *RatingRepository) ListByTenant(ctx context.Context, tenantID int) ([]*models.Rating, error) {
	return r.list(ctx, ratingSelect+`
		JOIN leases l ON l.id = r.lease_id
		WHERE l.tenant_id=$1
		ORDER BY r.created_at, r.id`, tenantID)
}
