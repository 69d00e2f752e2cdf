package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables
	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS principals (
		uid TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		api_key_hash TEXT NOT NULL DEFAULT '',
		is_staff BOOLEAN NOT NULL DEFAULT FALSE,
		is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_principals_api_key_hash ON principals(api_key_hash);
	CREATE INDEX IF NOT EXISTS idx_principals_email ON principals(email);

	CREATE TABLE IF NOT EXISTS tours (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		driver_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS itinerary_items (
		id TEXT PRIMARY KEY,
		tour_id TEXT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
		day INTEGER NOT NULL,
		start_time TIMESTAMP NOT NULL,
		location TEXT NOT NULL,
		activity TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_itinerary_tour_id ON itinerary_items(tour_id);

	CREATE TABLE IF NOT EXISTS driver_info (
		tour_id TEXT PRIMARY KEY REFERENCES tours(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS bookings (
		reference TEXT PRIMARY KEY,
		guest_name TEXT NOT NULL,
		guest_email TEXT NOT NULL,
		tour_id TEXT NOT NULL REFERENCES tours(id),
		is_driver BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_tour_id ON bookings(tour_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings(guest_email);

	CREATE TABLE IF NOT EXISTS tour_participants (
		tour_id TEXT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		joined_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (tour_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_participants_user_id ON tour_participants(user_id);

	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_name TEXT NOT NULL,
		platform TEXT NOT NULL,
		push_token TEXT NOT NULL,
		notifications TEXT NOT NULL DEFAULT '{}',
		registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
		last_seen_at TIMESTAMP NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_devices_user_id ON devices(user_id);
	CREATE INDEX IF NOT EXISTS idx_devices_push_token ON devices(push_token);
	`

	_, err := db.Exec(schema)
	return err
}
