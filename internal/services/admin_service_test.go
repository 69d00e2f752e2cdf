package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourlink/server/internal/models"
)

func newAdminService(tours *fakeTourRepo, bookings *fakeBookingRepo, principals *fakePrincipalRepo) *AdminService {
	if tours == nil {
		tours = &fakeTourRepo{}
	}
	if bookings == nil {
		bookings = &fakeBookingRepo{}
	}
	if principals == nil {
		principals = &fakePrincipalRepo{principals: map[string]*models.Principal{}}
	}
	return NewAdminService(tours, bookings, &fakeRoster{}, principals)
}

func TestAdminService_CreateTour(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	t.Run("creates a tour with generated ID", func(t *testing.T) {
		svc := newAdminService(nil, nil, nil)

		tour, err := svc.CreateTour(ctx, "  Highlands Express  ", start, end)
		require.NoError(t, err)
		assert.NotEmpty(t, tour.ID)
		assert.Equal(t, "Highlands Express", tour.Name)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		svc := newAdminService(nil, nil, nil)

		_, err := svc.CreateTour(ctx, "   ", start, end)
		assert.ErrorIs(t, err, models.ErrEmptyTourName)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		svc := newAdminService(nil, nil, nil)

		_, err := svc.CreateTour(ctx, "Backwards", end, start)
		assert.ErrorIs(t, err, models.ErrInvalidTourDates)
	})
}

func TestAdminService_Itinerary(t *testing.T) {
	ctx := context.Background()
	tours := &fakeTourRepo{tour: &models.Tour{ID: "tour-1", Name: "Highlands Express"}}

	t.Run("adds a stop to an existing tour", func(t *testing.T) {
		svc := newAdminService(tours, nil, nil)

		item, err := svc.AddItineraryItem(ctx, "tour-1", 2, time.Now(), "Glencoe", "Hike", "")
		require.NoError(t, err)
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "tour-1", item.TourID)
	})

	t.Run("unknown tour yields not found", func(t *testing.T) {
		svc := newAdminService(tours, nil, nil)

		_, err := svc.AddItineraryItem(ctx, "tour-9", 1, time.Now(), "Oban", "Ferry", "")
		assert.ErrorIs(t, err, models.ErrTourNotFound)
	})

	t.Run("driver info requires an existing tour", func(t *testing.T) {
		svc := newAdminService(tours, nil, nil)

		assert.NoError(t, svc.SetDriverInfo(ctx, "tour-1", &models.DriverInfo{Name: "Alex"}))
		assert.ErrorIs(t, svc.SetDriverInfo(ctx, "tour-9", &models.DriverInfo{Name: "Alex"}),
			models.ErrTourNotFound)
	})
}

func TestAdminService_Bookings(t *testing.T) {
	ctx := context.Background()
	tours := &fakeTourRepo{tour: &models.Tour{ID: "tour-1", Name: "Highlands Express"}}

	t.Run("creates a booking with normalized credentials", func(t *testing.T) {
		svc := newAdminService(tours, nil, nil)

		booking, err := svc.CreateBooking(ctx, " abc123 ", "Sam", " Guest@Example.COM ", "tour-1", false)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", booking.Reference)
		assert.Equal(t, "guest@example.com", booking.GuestEmail)
	})

	t.Run("rejects bookings for unknown tours", func(t *testing.T) {
		svc := newAdminService(tours, nil, nil)

		_, err := svc.CreateBooking(ctx, "ABC123", "Sam", "guest@example.com", "tour-9", false)
		assert.ErrorIs(t, err, models.ErrTourNotFound)
	})

	t.Run("rejects blank reference", func(t *testing.T) {
		svc := newAdminService(tours, nil, nil)

		_, err := svc.CreateBooking(ctx, "  ", "Sam", "guest@example.com", "tour-1", false)
		assert.ErrorIs(t, err, models.ErrEmptyReference)
	})

	t.Run("lookup normalizes the reference", func(t *testing.T) {
		bookings := &fakeBookingRepo{bookings: map[string]*models.Booking{
			"ABC123": {Reference: "ABC123", GuestEmail: "guest@example.com", TourID: "tour-1"},
		}}
		svc := newAdminService(tours, bookings, nil)

		booking, err := svc.GetBooking(ctx, " abc123 ")
		require.NoError(t, err)
		assert.Equal(t, "ABC123", booking.Reference)
	})

	t.Run("missing booking yields not found", func(t *testing.T) {
		svc := newAdminService(tours, nil, nil)

		_, err := svc.GetBooking(ctx, "NOPE42")
		assert.ErrorIs(t, err, models.ErrBookingNotFound)
	})
}

func TestAdminService_CreatePrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("stores only the key hash", func(t *testing.T) {
		principals := &fakePrincipalRepo{principals: map[string]*models.Principal{}}
		svc := newAdminService(nil, nil, principals)

		created, apiKey, err := svc.CreatePrincipal(ctx, "ops@example.com", "Ops", "s3cret-pass", true)
		require.NoError(t, err)
		require.NotEmpty(t, apiKey)

		stored := principals.principals[created.UID]
		require.NotNil(t, stored)
		assert.Equal(t, models.HashAPIKey(apiKey), stored.APIKeyHash)
		assert.True(t, stored.IsStaff)
		assert.True(t, stored.VerifyPassword("s3cret-pass"))
	})

	t.Run("password is optional", func(t *testing.T) {
		svc := newAdminService(nil, nil, nil)

		created, _, err := svc.CreatePrincipal(ctx, "guide@example.com", "Guide", "", false)
		require.NoError(t, err)
		assert.False(t, created.VerifyPassword(""))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		svc := newAdminService(nil, nil, nil)

		_, _, err := svc.CreatePrincipal(ctx, "ops@example.com", "Ops", "short", true)
		assert.ErrorIs(t, err, models.ErrPasswordTooShort)
	})
}

func TestAdminService_AddParticipant(t *testing.T) {
	ctx := context.Background()
	tours := &fakeTourRepo{tour: &models.Tour{ID: "tour-1", Name: "Highlands Express"}}

	active := &models.Principal{UID: "user-1", Email: "guest@example.com", IsActive: true}
	disabled := &models.Principal{UID: "user-2", Email: "old@example.com", IsActive: false}
	principals := &fakePrincipalRepo{principals: map[string]*models.Principal{
		"user-1": active,
		"user-2": disabled,
	}}

	svc := newAdminService(tours, nil, principals)

	t.Run("adds an active principal", func(t *testing.T) {
		assert.NoError(t, svc.AddParticipant(ctx, "tour-1", "user-1"))
	})

	t.Run("unknown tour yields not found", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddParticipant(ctx, "tour-9", "user-1"), models.ErrTourNotFound)
	})

	t.Run("unknown principal yields not found", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddParticipant(ctx, "tour-1", "nobody"), models.ErrPrincipalNotFound)
	})

	t.Run("disabled principal is rejected", func(t *testing.T) {
		assert.ErrorIs(t, svc.AddParticipant(ctx, "tour-1", "user-2"), models.ErrPrincipalDisabled)
	})
}

func TestAdminService_StaffLogin(t *testing.T) {
	ctx := context.Background()

	seedStaff := func(t *testing.T, active bool) (*fakePrincipalRepo, *models.Principal) {
		t.Helper()
		staff, err := models.NewPrincipal("ops@example.com", "Ops", true)
		require.NoError(t, err)
		require.NoError(t, staff.SetPassword("s3cret-pass"))
		staff.IsActive = active
		return &fakePrincipalRepo{principals: map[string]*models.Principal{staff.UID: staff}}, staff
	}

	t.Run("rotates the API key on success", func(t *testing.T) {
		principals, staff := seedStaff(t, true)
		svc := newAdminService(nil, nil, principals)

		_, apiKey, err := svc.StaffLogin(ctx, "Ops@Example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, models.HashAPIKey(apiKey), staff.APIKeyHash)

		_, second, err := svc.StaffLogin(ctx, "ops@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.NotEqual(t, apiKey, second)
		assert.Equal(t, models.HashAPIKey(second), staff.APIKeyHash)
	})

	t.Run("unknown email and wrong password look identical", func(t *testing.T) {
		principals, _ := seedStaff(t, true)
		svc := newAdminService(nil, nil, principals)

		_, _, unknownErr := svc.StaffLogin(ctx, "nobody@example.com", "s3cret-pass")
		_, _, wrongErr := svc.StaffLogin(ctx, "ops@example.com", "wrong-pass")
		assert.ErrorIs(t, unknownErr, models.ErrPrincipalNotFound)
		assert.ErrorIs(t, wrongErr, models.ErrPrincipalNotFound)
	})

	t.Run("disabled account is rejected", func(t *testing.T) {
		principals, _ := seedStaff(t, false)
		svc := newAdminService(nil, nil, principals)

		_, _, err := svc.StaffLogin(ctx, "ops@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, models.ErrPrincipalDisabled)
	})
}

func TestAdminService_EnsureBootstrapStaff(t *testing.T) {
	ctx := context.Background()
	principals := &fakePrincipalRepo{principals: map[string]*models.Principal{}}
	svc := newAdminService(nil, nil, principals)

	key, err := svc.EnsureBootstrapStaff(ctx, "ops@example.com", "Operations", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	seeded, err := principals.GetByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	require.NotNil(t, seeded)
	assert.True(t, seeded.IsStaff)

	again, err := svc.EnsureBootstrapStaff(ctx, "ops@example.com", "Operations", "s3cret-pass")
	require.NoError(t, err)
	assert.Empty(t, again)
}
