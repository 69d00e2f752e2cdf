package services

import (
	"context"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/observability"
	"github.com/tourlink/server/internal/repository"
)

// BroadcastVerifier confirms a claimed-privileged sender is a real,
// enabled, non-anonymous principal. A sender ID prefix is only ever a
// hint; callers must pair it with this check or they have a spoofing
// hole by construction.
type BroadcastVerifier struct {
	principals repository.PrincipalRepo
}

// NewBroadcastVerifier creates a new BroadcastVerifier
func NewBroadcastVerifier(principals repository.PrincipalRepo) *BroadcastVerifier {
	return &BroadcastVerifier{principals: principals}
}

// Verify returns true only when the claim's SenderUID resolves to an
// enabled, non-anonymous principal. Every failure mode collapses to
// false: the caller's only valid response to any of them is uniform
// rejection, so distinct error types would just leak detail.
func (v *BroadcastVerifier) Verify(ctx context.Context, claim *models.BroadcastClaim) bool {
	log := observability.WithContext(ctx).WithField("sender_id", claim.SenderID)

	if claim.SenderUID == "" {
		log.Warn("broadcast claim rejected: missing sender uid")
		return false
	}

	principal, err := v.principals.GetByUID(ctx, claim.SenderUID)
	if err != nil {
		log.Warnf("broadcast claim rejected: principal lookup failed: %v", err)
		return false
	}
	if principal == nil {
		log.Warnf("broadcast claim rejected: unknown uid %s", claim.SenderUID)
		return false
	}
	if !principal.IsActive {
		log.Warnf("broadcast claim rejected: principal %s is disabled", claim.SenderUID)
		return false
	}
	if principal.IsAnonymous {
		log.Warnf("broadcast claim rejected: principal %s is anonymous", claim.SenderUID)
		return false
	}

	return true
}
