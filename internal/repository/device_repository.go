package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tourlink/server/internal/models"
)

// deviceColumns maps patchable field names to their columns. Anything
// outside this map is rejected before touching the database.
var deviceColumns = map[string]string{
	"deviceName":    "device_name",
	"pushToken":     "push_token",
	"notifications": "notifications",
	"lastSeenAt":    "last_seen_at",
	"isActive":      "is_active",
}

// ErrUnknownPatchField is returned when a patch names a field the
// device registry does not expose
var ErrUnknownPatchField = fmt.Errorf("unknown device patch field")

// DeviceRepository implements DeviceRepo for PostgreSQL/SQLite
type DeviceRepository struct {
	db *sql.DB
}

// NewDeviceRepository creates a new DeviceRepository
func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	query := `SELECT id, user_id, device_name, platform, push_token, notifications, registered_at, last_seen_at, is_active
			  FROM devices WHERE id = $1`

	return scanDevice(r.db.QueryRowContext(ctx, query, id))
}

func (r *DeviceRepository) GetActiveForUser(ctx context.Context, userID string) ([]*models.Device, error) {
	query := `SELECT id, user_id, device_name, platform, push_token, notifications, registered_at, last_seen_at, is_active
			  FROM devices WHERE user_id = $1 AND is_active = true ORDER BY last_seen_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

func (r *DeviceRepository) Add(ctx context.Context, device *models.Device) error {
	notifications, err := json.Marshal(device.Notifications)
	if err != nil {
		return err
	}

	query := `INSERT INTO devices (id, user_id, device_name, platform, push_token, notifications, registered_at, last_seen_at, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		device.ID, device.UserID, device.DeviceName, device.Platform,
		device.PushToken, string(notifications),
		device.RegisteredAt, device.LastSeenAt, device.IsActive,
	)
	return err
}

// ApplyPatch applies every op in the set as one UPDATE inside a
// transaction. Unknown fields fail the whole patch.
func (r *DeviceRepository) ApplyPatch(ctx context.Context, deviceID string, patch *models.PatchSet) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	var assignments []string
	args := []interface{}{deviceID}

	for _, op := range patch.Ops() {
		column, ok := deviceColumns[op.Field]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPatchField, op.Field)
		}

		value := op.Value
		if op.Field == "notifications" {
			encoded, err := json.Marshal(op.Value)
			if err != nil {
				return err
			}
			value = string(encoded)
		}

		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	query := fmt.Sprintf("UPDATE devices SET %s WHERE id = $1", strings.Join(assignments, ", "))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if rows == 0 {
		tx.Rollback()
		return models.ErrDeviceNotFound
	}

	return tx.Commit()
}

// RemoveToken deactivates every device of the user carrying the token.
// Used by the fan-out path when a provider reports a token dead.
func (r *DeviceRepository) RemoveToken(ctx context.Context, userID, token string) error {
	query := `UPDATE devices SET push_token = '', is_active = false
			  WHERE user_id = $1 AND push_token = $2`

	_, err := r.db.ExecContext(ctx, query, userID, token)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var device models.Device
	var notifications string
	err := row.Scan(
		&device.ID, &device.UserID, &device.DeviceName, &device.Platform,
		&device.PushToken, &notifications,
		&device.RegisteredAt, &device.LastSeenAt, &device.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(notifications), &device.Notifications); err != nil {
		return nil, err
	}
	return &device, nil
}
