package repository

import (
	"context"
	"database/sql"

	"github.com/tourlink/server/internal/models"
)

// TourRepository implements TourRepo for PostgreSQL/SQLite
type TourRepository struct {
	db *sql.DB
}

// NewTourRepository creates a new TourRepository
func NewTourRepository(db *sql.DB) *TourRepository {
	return &TourRepository{db: db}
}

func (r *TourRepository) GetByID(ctx context.Context, id string) (*models.Tour, error) {
	query := `SELECT id, name, start_date, end_date, driver_id, created_at
			  FROM tours WHERE id = $1`

	var tour models.Tour
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tour.ID, &tour.Name, &tour.StartDate, &tour.EndDate,
		&tour.DriverID, &tour.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *TourRepository) GetItinerary(ctx context.Context, tourID string) ([]models.ItineraryItem, error) {
	query := `SELECT id, tour_id, day, start_time, location, activity, notes
			  FROM itinerary_items WHERE tour_id = $1 ORDER BY day, start_time`

	rows, err := r.db.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ItineraryItem
	for rows.Next() {
		var item models.ItineraryItem
		if err := rows.Scan(&item.ID, &item.TourID, &item.Day, &item.StartTime,
			&item.Location, &item.Activity, &item.Notes); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *TourRepository) GetDriverInfo(ctx context.Context, tourID string) (*models.DriverInfo, error) {
	query := `SELECT name, phone, photo_url FROM driver_info WHERE tour_id = $1`

	var info models.DriverInfo
	err := r.db.QueryRowContext(ctx, query, tourID).Scan(&info.Name, &info.Phone, &info.PhotoURL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *TourRepository) Add(ctx context.Context, tour *models.Tour) error {
	query := `INSERT INTO tours (id, name, start_date, end_date, driver_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		tour.ID, tour.Name, tour.StartDate, tour.EndDate, tour.DriverID, tour.CreatedAt,
	)
	return err
}

func (r *TourRepository) AddItineraryItem(ctx context.Context, item *models.ItineraryItem) error {
	query := `INSERT INTO itinerary_items (id, tour_id, day, start_time, location, activity, notes)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.TourID, item.Day, item.StartTime, item.Location, item.Activity, item.Notes,
	)
	return err
}

func (r *TourRepository) SetDriverInfo(ctx context.Context, tourID string, info *models.DriverInfo) error {
	query := `INSERT INTO driver_info (tour_id, name, phone, photo_url)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (tour_id) DO UPDATE SET name = $2, phone = $3, photo_url = $4`

	_, err := r.db.ExecContext(ctx, query, tourID, info.Name, info.Phone, info.PhotoURL)
	return err
}
