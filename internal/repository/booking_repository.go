package repository

import (
	"context"
	"database/sql"

	"github.com/tourlink/server/internal/models"
)

// BookingRepository implements BookingRepo for PostgreSQL/SQLite
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT reference, guest_name, guest_email, tour_id, is_driver, created_at
			  FROM bookings WHERE reference = $1`

	var booking models.Booking
	err := r.db.QueryRowContext(ctx, query, reference).Scan(
		&booking.Reference, &booking.GuestName, &booking.GuestEmail,
		&booking.TourID, &booking.IsDriver, &booking.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) Add(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (reference, guest_name, guest_email, tour_id, is_driver, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		booking.Reference, booking.GuestName, booking.GuestEmail,
		booking.TourID, booking.IsDriver, booking.CreatedAt,
	)
	return err
}
