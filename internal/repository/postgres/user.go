package postgres

import (
	"context"
	"database/sql"

	"ridepay/internal/domain"
	"ridepay/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, name, email, image_url) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, user.ID, user.Name, nullString(user.Email), nullString(user.ImageURL))
	return translateError(err)
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, name, COALESCE(email, ''), COALESCE(image_url, ''), created_at FROM users WHERE id = $1`

	var user domain.User
	err := r.q.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.ImageURL, &user.CreatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
