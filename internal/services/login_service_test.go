package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourlink/server/internal/models"
)

type fakeBookingRepo struct {
	bookings map[string]*models.Booking
	err      error
}

func (f *fakeBookingRepo) GetByReference(_ context.Context, reference string) (*models.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bookings[reference], nil
}

func (f *fakeBookingRepo) Add(context.Context, *models.Booking) error { return nil }

type fakeTourRepo struct {
	tour *models.Tour
}

func (f *fakeTourRepo) GetByID(_ context.Context, id string) (*models.Tour, error) {
	if f.tour != nil && f.tour.ID == id {
		return f.tour, nil
	}
	return nil, nil
}

func (f *fakeTourRepo) GetItinerary(_ context.Context, tourID string) ([]models.ItineraryItem, error) {
	return []models.ItineraryItem{{ID: "it-1", TourID: tourID, Day: 1}}, nil
}

func (f *fakeTourRepo) GetDriverInfo(context.Context, string) (*models.DriverInfo, error) {
	return &models.DriverInfo{Name: "Alex"}, nil
}

func (f *fakeTourRepo) Add(context.Context, *models.Tour) error { return nil }

func (f *fakeTourRepo) AddItineraryItem(context.Context, *models.ItineraryItem) error { return nil }

func (f *fakeTourRepo) SetDriverInfo(context.Context, string, *models.DriverInfo) error { return nil }

func newLoginService(t *testing.T, cfg LoginConfig) (*LoginService, *fakeBookingRepo) {
	t.Helper()

	bookings := &fakeBookingRepo{bookings: map[string]*models.Booking{
		"ABC123": {
			Reference:  "ABC123",
			GuestEmail: "guest@example.com",
			TourID:     "tour-1",
		},
	}}
	tours := &fakeTourRepo{tour: &models.Tour{ID: "tour-1", Name: "Highlands Express"}}

	limiter := NewRateLimiter(time.Hour)
	t.Cleanup(limiter.Stop)

	return NewLoginService(bookings, tours, limiter, cfg), bookings
}

func TestLoginService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials succeed with tour pack", func(t *testing.T) {
		svc, _ := newLoginService(t, LoginConfig{})

		resp := svc.Login(ctx, "client-1", "", models.LoginRequest{
			Reference: " abc123 ",
			Email:     "Guest@Example.COM",
		})

		assert.Equal(t, models.LoginOutcomeOK, resp.Outcome)
		require.NotNil(t, resp.Result)
		assert.True(t, resp.Result.Success)
		assert.Equal(t, models.LoginSourceServer, resp.Result.Source)
		require.NotNil(t, resp.TourPack)
		assert.Equal(t, "Highlands Express", resp.TourPack.Tour.Name)
		assert.Len(t, resp.TourPack.Itinerary, 1)
		assert.False(t, resp.TourPack.LastSyncedAt.IsZero())
	})

	t.Run("unknown reference and wrong email share one code", func(t *testing.T) {
		svc, _ := newLoginService(t, LoginConfig{})

		unknown := svc.Login(ctx, "client-1", "", models.LoginRequest{Reference: "NOPE42", Email: "guest@example.com"})
		mismatch := svc.Login(ctx, "client-1", "", models.LoginRequest{Reference: "ABC123", Email: "wrong@example.com"})

		assert.Equal(t, models.LoginOutcomeInvalid, unknown.Outcome)
		assert.Equal(t, models.LoginOutcomeInvalid, mismatch.Outcome)
		assert.Nil(t, unknown.TourPack)
		assert.Nil(t, mismatch.TourPack)
	})

	t.Run("missing fields are malformed", func(t *testing.T) {
		svc, _ := newLoginService(t, LoginConfig{})

		resp := svc.Login(ctx, "client-1", "", models.LoginRequest{Reference: "", Email: "guest@example.com"})
		assert.Equal(t, models.LoginOutcomeMalformed, resp.Outcome)
	})

	t.Run("rate limit kicks in per client key", func(t *testing.T) {
		svc, _ := newLoginService(t, LoginConfig{Budget: RateBudget{Max: 2, Window: time.Minute}})

		req := models.LoginRequest{Reference: "NOPE42", Email: "guest@example.com"}
		assert.Equal(t, models.LoginOutcomeInvalid, svc.Login(ctx, "client-1", "", req).Outcome)
		assert.Equal(t, models.LoginOutcomeInvalid, svc.Login(ctx, "client-1", "", req).Outcome)
		assert.Equal(t, models.LoginOutcomeRateLimited, svc.Login(ctx, "client-1", "", req).Outcome)

		// A different client key still has budget.
		assert.Equal(t, models.LoginOutcomeInvalid, svc.Login(ctx, "client-2", "", req).Outcome)
	})

	t.Run("pre-verification token enforced when configured", func(t *testing.T) {
		svc, _ := newLoginService(t, LoginConfig{PreVerifyToken: "secret-token"})
		req := models.LoginRequest{Reference: "ABC123", Email: "guest@example.com"}

		assert.Equal(t, models.LoginOutcomeMalformed, svc.Login(ctx, "client-1", "", req).Outcome)
		assert.Equal(t, models.LoginOutcomeMalformed, svc.Login(ctx, "client-1", "wrong", req).Outcome)
		assert.Equal(t, models.LoginOutcomeOK, svc.Login(ctx, "client-1", "secret-token", req).Outcome)
	})

	t.Run("repository error is internal", func(t *testing.T) {
		svc, bookings := newLoginService(t, LoginConfig{})
		bookings.err = fmt.Errorf("db down")

		resp := svc.Login(ctx, "client-1", "", models.LoginRequest{Reference: "ABC123", Email: "guest@example.com"})
		assert.Equal(t, models.LoginOutcomeInternal, resp.Outcome)
	})
}
