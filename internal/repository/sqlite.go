package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Create tables
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Principals (auth authority)
	CREATE TABLE IF NOT EXISTS principals (
		uid TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		api_key_hash TEXT NOT NULL DEFAULT '',
		is_staff INTEGER NOT NULL DEFAULT 0,
		is_anonymous INTEGER NOT NULL DEFAULT 0,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_principals_api_key_hash ON principals(api_key_hash);
	CREATE INDEX IF NOT EXISTS idx_principals_email ON principals(email);

	-- Tours
	CREATE TABLE IF NOT EXISTS tours (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		driver_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Itinerary items (tour schedule)
	CREATE TABLE IF NOT EXISTS itinerary_items (
		id TEXT PRIMARY KEY,
		tour_id TEXT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
		day INTEGER NOT NULL,
		start_time DATETIME NOT NULL,
		location TEXT NOT NULL,
		activity TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_itinerary_tour_id ON itinerary_items(tour_id);

	-- Driver contact info, one row per tour
	CREATE TABLE IF NOT EXISTS driver_info (
		tour_id TEXT PRIMARY KEY REFERENCES tours(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT ''
	);

	-- Bookings (login credential pairs)
	CREATE TABLE IF NOT EXISTS bookings (
		reference TEXT PRIMARY KEY,
		guest_name TEXT NOT NULL,
		guest_email TEXT NOT NULL,
		tour_id TEXT NOT NULL REFERENCES tours(id),
		is_driver INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_tour_id ON bookings(tour_id);
	CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings(guest_email);

	-- Tour participants (fan-out roster)
	CREATE TABLE IF NOT EXISTS tour_participants (
		tour_id TEXT NOT NULL REFERENCES tours(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tour_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_participants_user_id ON tour_participants(user_id);

	-- Devices (push token registry)
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		device_name TEXT NOT NULL,
		platform TEXT NOT NULL,
		push_token TEXT NOT NULL,
		notifications TEXT NOT NULL DEFAULT '{}',
		registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_devices_user_id ON devices(user_id);
	CREATE INDEX IF NOT EXISTS idx_devices_push_token ON devices(push_token);
	`

	_, err := db.Exec(schema)
	return err
}
