package repository

import (
	"context"

	"github.com/tourlink/server/internal/models"
)

// BookingRepo defines the interface for booking persistence operations
type BookingRepo interface {
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	Add(ctx context.Context, booking *models.Booking) error
}

// TourRepo defines the interface for tour persistence operations
type TourRepo interface {
	GetByID(ctx context.Context, id string) (*models.Tour, error)
	GetItinerary(ctx context.Context, tourID string) ([]models.ItineraryItem, error)
	GetDriverInfo(ctx context.Context, tourID string) (*models.DriverInfo, error)
	Add(ctx context.Context, tour *models.Tour) error
	AddItineraryItem(ctx context.Context, item *models.ItineraryItem) error
	SetDriverInfo(ctx context.Context, tourID string, info *models.DriverInfo) error
}

// ParticipantRepo exposes the tour participant roster. The fan-out core
// only needs an existence check and an iterable set of participant IDs.
type ParticipantRepo interface {
	GetParticipantIDs(ctx context.Context, tourID string) ([]string, error)
	IsParticipant(ctx context.Context, tourID, userID string) (bool, error)
	Add(ctx context.Context, tourID, userID string) error
}

// DeviceRepo defines the interface for the device token registry
type DeviceRepo interface {
	GetByID(ctx context.Context, id string) (*models.Device, error)
	GetActiveForUser(ctx context.Context, userID string) ([]*models.Device, error)
	Add(ctx context.Context, device *models.Device) error
	ApplyPatch(ctx context.Context, deviceID string, patch *models.PatchSet) error
	RemoveToken(ctx context.Context, userID, token string) error
}

// PrincipalRepo is the authentication authority: it answers whether a
// uid maps to a real principal and whether that principal is enabled
// and non-anonymous
type PrincipalRepo interface {
	GetByUID(ctx context.Context, uid string) (*models.Principal, error)
	GetByEmail(ctx context.Context, email string) (*models.Principal, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.Principal, error)
	Add(ctx context.Context, principal *models.Principal) error
	UpdateAPIKeyHash(ctx context.Context, uid, hash string) error
}
