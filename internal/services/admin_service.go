package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/observability"
	"github.com/tourlink/server/internal/repository"
)

// AdminService owns the operator-side write path: creating tours,
// itineraries, bookings, and principals. Everything here sits behind a
// staff principal check in the handler layer; the service itself only
// enforces referential rules.
type AdminService struct {
	tours        repository.TourRepo
	bookings     repository.BookingRepo
	participants repository.ParticipantRepo
	principals   repository.PrincipalRepo
}

// NewAdminService creates a new AdminService
func NewAdminService(
	tours repository.TourRepo,
	bookings repository.BookingRepo,
	participants repository.ParticipantRepo,
	principals repository.PrincipalRepo,
) *AdminService {
	return &AdminService{
		tours:        tours,
		bookings:     bookings,
		participants: participants,
		principals:   principals,
	}
}

// CreateTour validates and persists a new tour
func (s *AdminService) CreateTour(ctx context.Context, name string, startDate, endDate time.Time) (*models.Tour, error) {
	tour, err := models.NewTour(name, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if err := s.tours.Add(ctx, tour); err != nil {
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}
	return tour, nil
}

// AddItineraryItem appends a stop to an existing tour's schedule
func (s *AdminService) AddItineraryItem(ctx context.Context, tourID string, day int, startTime time.Time, location, activity, notes string) (*models.ItineraryItem, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tour: %w", err)
	}
	if tour == nil {
		return nil, models.ErrTourNotFound
	}

	item := &models.ItineraryItem{
		ID:        uuid.New().String(),
		TourID:    tour.ID,
		Day:       day,
		StartTime: startTime,
		Location:  location,
		Activity:  activity,
		Notes:     notes,
	}
	if err := s.tours.AddItineraryItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add itinerary item: %w", err)
	}
	return item, nil
}

// SetDriverInfo creates or replaces the driver contact bundle for a tour
func (s *AdminService) SetDriverInfo(ctx context.Context, tourID string, info *models.DriverInfo) error {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return fmt.Errorf("failed to look up tour: %w", err)
	}
	if tour == nil {
		return models.ErrTourNotFound
	}
	return s.tours.SetDriverInfo(ctx, tour.ID, info)
}

// CreateBooking validates the tour reference and persists a new booking
func (s *AdminService) CreateBooking(ctx context.Context, reference, guestName, guestEmail, tourID string, isDriver bool) (*models.Booking, error) {
	booking, err := models.NewBooking(reference, guestName, guestEmail, tourID, isDriver)
	if err != nil {
		return nil, err
	}

	tour, err := s.tours.GetByID(ctx, booking.TourID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tour: %w", err)
	}
	if tour == nil {
		return nil, models.ErrTourNotFound
	}

	if err := s.bookings.Add(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

// GetBooking looks up a booking by reference
func (s *AdminService) GetBooking(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.bookings.GetByReference(ctx, models.NormalizeReference(reference))
	if err != nil {
		return nil, fmt.Errorf("failed to look up booking: %w", err)
	}
	if booking == nil {
		return nil, models.ErrBookingNotFound
	}
	return booking, nil
}

// CreatePrincipal creates a principal with a freshly generated API key.
// The plaintext key is returned exactly once; only its hash is stored.
func (s *AdminService) CreatePrincipal(ctx context.Context, email, displayName, password string, isStaff bool) (*models.Principal, string, error) {
	principal, err := models.NewPrincipal(email, displayName, isStaff)
	if err != nil {
		return nil, "", err
	}
	if password != "" {
		if err := principal.SetPassword(password); err != nil {
			return nil, "", err
		}
	}

	apiKey, err := models.GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}
	principal.APIKeyHash = models.HashAPIKey(apiKey)

	if err := s.principals.Add(ctx, principal); err != nil {
		return nil, "", fmt.Errorf("failed to create principal: %w", err)
	}
	return principal, apiKey, nil
}

// AddParticipant puts a principal on a tour's roster
func (s *AdminService) AddParticipant(ctx context.Context, tourID, userID string) error {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return fmt.Errorf("failed to look up tour: %w", err)
	}
	if tour == nil {
		return models.ErrTourNotFound
	}

	principal, err := s.principals.GetByUID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to look up principal: %w", err)
	}
	if principal == nil {
		return models.ErrPrincipalNotFound
	}
	if !principal.IsActive {
		return models.ErrPrincipalDisabled
	}

	return s.participants.Add(ctx, tour.ID, principal.UID)
}

// StaffLogin exchanges staff email and password for a fresh API key.
// The stored key hash is rotated on every successful login, so the old
// key stops working the moment a new one is issued.
func (s *AdminService) StaffLogin(ctx context.Context, email, password string) (*models.Principal, string, error) {
	principal, err := s.principals.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up principal: %w", err)
	}
	// Unknown email and wrong password are indistinguishable to the caller
	if principal == nil || !principal.VerifyPassword(password) {
		return nil, "", models.ErrPrincipalNotFound
	}
	if !principal.IsActive {
		return nil, "", models.ErrPrincipalDisabled
	}

	apiKey, err := models.GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}
	if err := s.principals.UpdateAPIKeyHash(ctx, principal.UID, models.HashAPIKey(apiKey)); err != nil {
		return nil, "", fmt.Errorf("failed to rotate API key: %w", err)
	}
	return principal, apiKey, nil
}

// EnsureBootstrapStaff creates the first staff principal when none
// exists for the configured email. Returns the plaintext API key on
// creation so it can be logged once at startup, and "" when the
// principal already exists.
func (s *AdminService) EnsureBootstrapStaff(ctx context.Context, email, displayName, password string) (string, error) {
	existing, err := s.principals.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("failed to look up bootstrap principal: %w", err)
	}
	if existing != nil {
		return "", nil
	}

	principal, apiKey, err := s.CreatePrincipal(ctx, email, displayName, password, true)
	if err != nil {
		return "", err
	}
	observability.Infof("Bootstrap staff principal created: uid=%s email=%s", principal.UID, principal.Email)
	return apiKey, nil
}
