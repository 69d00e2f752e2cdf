package offline

import (
	"fmt"

	"github.com/tourlink/server/internal/models"
)

// IdentityCache is the slice of the cache store the resolver needs
type IdentityCache interface {
	ReadCachedIdentity() (*models.CachedIdentity, error)
	ReadTourPack(reference string) (*models.TourPack, error)
}

// LoginResolver resolves a login entirely from the local cache, for use
// when network or backend calls are known to be unavailable. Its result
// has the same shape as the online verifier's.
type LoginResolver struct {
	cache IdentityCache
}

// NewLoginResolver creates a resolver over the given cache
func NewLoginResolver(cache IdentityCache) *LoginResolver {
	return &LoginResolver{cache: cache}
}

// Resolve checks the session identity first, then the tour pack. A
// session identity whose reference matches but whose email differs
// fails immediately: a stale session must not be silently overridden by
// potentially-more-stale pack data.
func (r *LoginResolver) Resolve(reference, email string) (models.LoginResult, error) {
	reference = models.NormalizeReference(reference)
	email = models.NormalizeEmail(email)

	identity, err := r.cache.ReadCachedIdentity()
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("failed to read cached identity: %w", err)
	}

	if identity != nil && models.NormalizeReference(identity.BookingReference) == reference {
		if identity.NormalizedEmail != email {
			return failure(models.ReasonEmailMismatch), nil
		}
		return success(identity.DriverFlag, models.LoginSourceSession), nil
	}

	pack, err := r.cache.ReadTourPack(reference)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("failed to read tour pack: %w", err)
	}
	if pack == nil {
		return failure(models.ReasonEmailNotCached), nil
	}
	if pack.Booking.GuestEmail != email {
		return failure(models.ReasonEmailMismatch), nil
	}
	return success(pack.Booking.IsDriver, models.LoginSourceTourPack), nil
}

func success(driver bool, source string) models.LoginResult {
	loginType := models.LoginTypeGuest
	if driver {
		loginType = models.LoginTypeDriver
	}
	return models.LoginResult{
		Success: true,
		Type:    loginType,
		Source:  source,
	}
}

func failure(reason string) models.LoginResult {
	return models.LoginResult{
		Success: false,
		Reason:  reason,
	}
}
