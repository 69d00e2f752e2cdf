package repository

import (
	"context"
	"database/sql"

	"github.com/tourlink/server/internal/models"
)

// PrincipalRepository implements PrincipalRepo for PostgreSQL/SQLite
type PrincipalRepository struct {
	db *sql.DB
}

// NewPrincipalRepository creates a new PrincipalRepository
func NewPrincipalRepository(db *sql.DB) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

const principalColumns = `uid, email, display_name, password_hash, api_key_hash, is_staff, is_anonymous, is_active, created_at`

func (r *PrincipalRepository) GetByUID(ctx context.Context, uid string) (*models.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE uid = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, uid))
}

func (r *PrincipalRepository) GetByEmail(ctx context.Context, email string) (*models.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
}

func (r *PrincipalRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM principals WHERE api_key_hash = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, hash))
}

func (r *PrincipalRepository) Add(ctx context.Context, principal *models.Principal) error {
	query := `INSERT INTO principals (` + principalColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		principal.UID, principal.Email, principal.DisplayName,
		principal.PasswordHash, principal.APIKeyHash,
		principal.IsStaff, principal.IsAnonymous, principal.IsActive,
		principal.CreatedAt,
	)
	return err
}

func (r *PrincipalRepository) UpdateAPIKeyHash(ctx context.Context, uid, hash string) error {
	query := `UPDATE principals SET api_key_hash = $2 WHERE uid = $1`
	_, err := r.db.ExecContext(ctx, query, uid, hash)
	return err
}

func (r *PrincipalRepository) scanOne(row *sql.Row) (*models.Principal, error) {
	var p models.Principal
	err := row.Scan(
		&p.UID, &p.Email, &p.DisplayName, &p.PasswordHash, &p.APIKeyHash,
		&p.IsStaff, &p.IsAnonymous, &p.IsActive, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
