package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"rentflow-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, name, email, COALESCE(phone, ''), role, trust_score::float8, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.TrustScore, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleTenant
	}
	if u.TrustScore == 0 {
		u.TrustScore = models.DefaultTrustScore
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(name, email, phone, role, trust_score)
         VALUES($1, $2, NULLIF($3::text, ''), $4, $5)
         RETURNING id, created_at, updated_at`,
		u.Name, u.Email, u.Phone, u.Role, u.TrustScore,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// GetTenant returns the user only if it has the tenant role.
func (r *UserRepository) GetTenant(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.DB.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1 AND role=$2`, id, models.RoleTenant))
}

func (r *UserRepository) ListTenantIDs(ctx context.Context) ([]int, error) {
	rows, err := r.DB.Query(ctx, `SELECT id FROM users WHERE role=$1 ORDER BY id`, models.RoleTenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateTrustScore stores a recalculated score. Concurrent writers compute
// the same value from committed data, so last write wins.
func (r *UserRepository) UpdateTrustScore(ctx context.Context, id int, score float64) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE users SET trust_score=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`, score, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
