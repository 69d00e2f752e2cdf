package models

import "time"

// HealthResponse for GET /api/health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the generic error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// NotifyRequest is the single input struct for the notification trigger
// entry point. The hosting trigger infrastructure owns scheduling and
// re-invocation; this is just the handler payload.
type NotifyRequest struct {
	TourID string         `json:"tourId"`
	Claim  BroadcastClaim `json:"claim"`
}

// NotifyResponse is the single result struct returned to the trigger
type NotifyResponse struct {
	Dispatched bool  `json:"dispatched"`
	Recipients int   `json:"recipients"`
	Success    int   `json:"success"`
	Errors     int   `json:"errors"`
	ElapsedMs  int64 `json:"elapsedMs"`
}
