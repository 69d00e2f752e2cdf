package repository

import (
	"context"
	"database/sql"
)

// ParticipantRepository implements ParticipantRepo for PostgreSQL/SQLite
type ParticipantRepository struct {
	db *sql.DB
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(db *sql.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) GetParticipantIDs(ctx context.Context, tourID string) ([]string, error) {
	query := `SELECT user_id FROM tour_participants WHERE tour_id = $1 ORDER BY joined_at`

	rows, err := r.db.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ParticipantRepository) IsParticipant(ctx context.Context, tourID, userID string) (bool, error) {
	query := `SELECT 1 FROM tour_participants WHERE tour_id = $1 AND user_id = $2`

	var one int
	err := r.db.QueryRowContext(ctx, query, tourID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ParticipantRepository) Add(ctx context.Context, tourID, userID string) error {
	query := `INSERT INTO tour_participants (tour_id, user_id) VALUES ($1, $2)
			  ON CONFLICT (tour_id, user_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, tourID, userID)
	return err
}
