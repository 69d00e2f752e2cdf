// Package offline holds the client-side read-through cache and the
// login resolver that answers from it when the backend is unreachable.
package offline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tourlink/server/internal/models"
)

// PackMeta is the sync metadata stored alongside a tour pack
type PackMeta struct {
	BookingReference string    `json:"bookingReference"`
	TourID           string    `json:"tourId"`
	LastSyncedAt     time.Time `json:"lastSyncedAt"`
}

// CacheStore persists the last-known-good identity and tour packs in a
// local SQLite database. All reads and writes are whole-object; there
// are no partial field updates, so the cache can never hold a
// half-written record.
type CacheStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewCacheStore opens (or creates) the cache database at path
func NewCacheStore(path string) (*CacheStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store := &CacheStore{db: db}
	if err := store.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache tables: %w", err)
	}
	return store, nil
}

func (s *CacheStore) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cached_identity (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		payload TEXT NOT NULL,
		cached_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tour_packs (
		booking_reference TEXT PRIMARY KEY,
		tour_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		last_synced_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database
func (s *CacheStore) Close() error {
	return s.db.Close()
}

// ReadCachedIdentity returns the last server-confirmed login identity,
// or (nil, nil) when none has been cached yet
func (s *CacheStore) ReadCachedIdentity() (*models.CachedIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM cached_identity WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached identity: %w", err)
	}

	var identity models.CachedIdentity
	if err := json.Unmarshal([]byte(payload), &identity); err != nil {
		return nil, fmt.Errorf("failed to decode cached identity: %w", err)
	}
	return &identity, nil
}

// WriteCachedIdentity replaces the cached identity wholesale. Called
// only after a successful online verification.
func (s *CacheStore) WriteCachedIdentity(identity *models.CachedIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity.CachedAt = time.Now().UTC()
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO cached_identity (id, payload, cached_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, cached_at = excluded.cached_at`,
		string(payload), identity.CachedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write cached identity: %w", err)
	}
	return nil
}

// ReadTourPack returns the cached pack for a booking reference, or
// (nil, nil) when no pack is cached
func (s *CacheStore) ReadTourPack(reference string) (*models.TourPack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reference = models.NormalizeReference(reference)

	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM tour_packs WHERE booking_reference = ?`, reference,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tour pack: %w", err)
	}

	var pack models.TourPack
	if err := json.Unmarshal([]byte(payload), &pack); err != nil {
		return nil, fmt.Errorf("failed to decode tour pack: %w", err)
	}
	return &pack, nil
}

// WriteTourPack replaces the pack for its booking reference wholesale.
// LastSyncedAt is stamped from the local clock: the pack may be written
// before connectivity is good enough to fetch server time.
func (s *CacheStore) WriteTourPack(pack *models.TourPack) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pack.LastSyncedAt = time.Now().UTC()
	payload, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("failed to encode tour pack: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO tour_packs (booking_reference, tour_id, payload, last_synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (booking_reference) DO UPDATE SET
			tour_id = excluded.tour_id,
			payload = excluded.payload,
			last_synced_at = excluded.last_synced_at`,
		pack.Booking.Reference, pack.Tour.ID, string(payload), pack.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write tour pack: %w", err)
	}
	return nil
}

// ReadMeta returns sync metadata for a cached pack without decoding the
// full payload, or (nil, nil) when no pack is cached
func (s *CacheStore) ReadMeta(reference string) (*PackMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reference = models.NormalizeReference(reference)

	var meta PackMeta
	err := s.db.QueryRow(
		`SELECT booking_reference, tour_id, last_synced_at FROM tour_packs WHERE booking_reference = ?`,
		reference,
	).Scan(&meta.BookingReference, &meta.TourID, &meta.LastSyncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pack metadata: %w", err)
	}
	return &meta, nil
}
