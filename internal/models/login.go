package models

import "time"

// Login outcome codes. The closed set is shared between the online login
// entry point and the offline resolver so a client can render one mapping
// table regardless of which path produced the result.
const (
	LoginOutcomeOK          = "OK"
	LoginOutcomeInvalid     = "INVALID_CREDENTIALS" // not-found and mismatch collapse here
	LoginOutcomeRateLimited = "RATE_LIMITED"
	LoginOutcomeMalformed   = "MALFORMED"
	LoginOutcomeInternal    = "INTERNAL"
)

// Offline-specific reason codes, user-actionable and never conflated
// with technical errors
const (
	ReasonEmailMismatch  = "EMAIL_MISMATCH"
	ReasonEmailNotCached = "EMAIL_NOT_CACHED"
)

// Login result sources
const (
	LoginSourceServer   = "server"
	LoginSourceSession  = "session"
	LoginSourceTourPack = "tourPack"
)

// Login identity types
const (
	LoginTypeGuest  = "guest"
	LoginTypeDriver = "driver"
)

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Reference string `json:"reference"`
	Email     string `json:"email"`
}

// LoginResult is the shape shared by online and offline login paths
type LoginResult struct {
	Success bool   `json:"success"`
	Type    string `json:"type,omitempty"`   // guest or driver
	Source  string `json:"source,omitempty"` // server, session or tourPack
	Reason  string `json:"reason,omitempty"` // set only on failure
}

// LoginResponse is returned by the online login entry point. TourPack is
// present only on success so the client can refresh its offline cache.
type LoginResponse struct {
	Outcome  string           `json:"outcome"`
	Result   *LoginResult     `json:"result,omitempty"`
	Booking  *BookingResponse `json:"booking,omitempty"`
	TourPack *TourPack        `json:"tourPack,omitempty"`
}

// CachedIdentity is the durable, locally persisted copy of the last
// server-confirmed login identity
type CachedIdentity struct {
	BookingReference string    `json:"bookingReference"`
	NormalizedEmail  string    `json:"normalizedEmail"`
	TourID           string    `json:"tourId"`
	DriverFlag       bool      `json:"driverFlag"`
	CachedAt         time.Time `json:"cachedAt"`
}

// TourPack bundles everything a client needs to operate on a tour
// without connectivity. Refreshed wholesale on each successful sync,
// never partially merged.
type TourPack struct {
	Tour         Tour            `json:"tour"`
	Booking      Booking         `json:"booking"`
	Itinerary    []ItineraryItem `json:"itinerary"`
	DriverInfo   *DriverInfo     `json:"driverInfo,omitempty"`
	LastSyncedAt time.Time       `json:"lastSyncedAt"`
}
