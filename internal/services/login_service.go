package services

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/observability"
	"github.com/tourlink/server/internal/repository"
)

// LoginConfig tunes the login entry point
type LoginConfig struct {
	// PreVerifyToken, when non-empty, must be presented by the client
	// before credentials are even looked at
	PreVerifyToken string
	Budget         RateBudget
}

// DefaultLoginConfig returns the production login budget
func DefaultLoginConfig() LoginConfig {
	return LoginConfig{
		Budget: RateBudget{Max: 10, Window: 15 * time.Minute},
	}
}

// LoginService is the online login entry point. It authenticates a
// booking reference + email pair and, on success, assembles the tour
// pack the client caches for offline use.
type LoginService struct {
	bookings repository.BookingRepo
	tours    repository.TourRepo
	limiter  *RateLimiter
	cfg      LoginConfig
}

// NewLoginService creates a new LoginService
func NewLoginService(bookings repository.BookingRepo, tours repository.TourRepo, limiter *RateLimiter, cfg LoginConfig) *LoginService {
	if cfg.Budget.Max <= 0 {
		cfg.Budget = DefaultLoginConfig().Budget
	}
	return &LoginService{
		bookings: bookings,
		tours:    tours,
		limiter:  limiter,
		cfg:      cfg,
	}
}

// Login resolves a credential pair to one of a small closed set of
// outcomes. Not-found and email-mismatch collapse into one code: the
// response never reveals which half of the pair was wrong.
func (s *LoginService) Login(ctx context.Context, clientKey, preVerifyToken string, req models.LoginRequest) *models.LoginResponse {
	log := observability.WithContext(ctx)

	if s.cfg.PreVerifyToken != "" {
		if subtle.ConstantTimeCompare([]byte(s.cfg.PreVerifyToken), []byte(preVerifyToken)) != 1 {
			log.Warn("login rejected: missing or invalid pre-verification token")
			return &models.LoginResponse{Outcome: models.LoginOutcomeMalformed}
		}
	}

	reference := models.NormalizeReference(req.Reference)
	email := models.NormalizeEmail(req.Email)
	if reference == "" || email == "" {
		return &models.LoginResponse{Outcome: models.LoginOutcomeMalformed}
	}

	if !s.limiter.Allow("login:"+clientKey, s.cfg.Budget.Max, s.cfg.Budget.Window) {
		log.Warnf("login rate limited for client %s", clientKey)
		return &models.LoginResponse{Outcome: models.LoginOutcomeRateLimited}
	}

	booking, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		log.Errorf("login lookup failed: %v", err)
		return &models.LoginResponse{Outcome: models.LoginOutcomeInternal}
	}
	if booking == nil || booking.GuestEmail != email {
		return &models.LoginResponse{
			Outcome: models.LoginOutcomeInvalid,
			Result:  &models.LoginResult{Success: false, Reason: models.LoginOutcomeInvalid},
		}
	}

	pack, err := s.buildTourPack(ctx, booking)
	if err != nil {
		log.Errorf("tour pack assembly failed for %s: %v", booking.Reference, err)
		return &models.LoginResponse{Outcome: models.LoginOutcomeInternal}
	}

	loginType := models.LoginTypeGuest
	if booking.IsDriver {
		loginType = models.LoginTypeDriver
	}

	bookingResp := booking.ToResponse()
	return &models.LoginResponse{
		Outcome: models.LoginOutcomeOK,
		Result: &models.LoginResult{
			Success: true,
			Type:    loginType,
			Source:  models.LoginSourceServer,
		},
		Booking:  &bookingResp,
		TourPack: pack,
	}
}

// buildTourPack assembles the offline bundle wholesale. Itinerary and
// driver info are optional; a missing tour is not.
func (s *LoginService) buildTourPack(ctx context.Context, booking *models.Booking) (*models.TourPack, error) {
	tour, err := s.tours.GetByID(ctx, booking.TourID)
	if err != nil {
		return nil, err
	}
	if tour == nil {
		return nil, models.ErrTourNotFound
	}

	itinerary, err := s.tours.GetItinerary(ctx, booking.TourID)
	if err != nil {
		observability.WithContext(ctx).Warnf("itinerary fetch failed for %s: %v", booking.TourID, err)
		itinerary = nil
	}

	driverInfo, err := s.tours.GetDriverInfo(ctx, booking.TourID)
	if err != nil {
		observability.WithContext(ctx).Warnf("driver info fetch failed for %s: %v", booking.TourID, err)
		driverInfo = nil
	}

	return &models.TourPack{
		Tour:         *tour,
		Booking:      *booking,
		Itinerary:    itinerary,
		DriverInfo:   driverInfo,
		LastSyncedAt: time.Now().UTC(),
	}, nil
}
