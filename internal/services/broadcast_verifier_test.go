package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tourlink/server/internal/models"
)

type fakePrincipalRepo struct {
	principals map[string]*models.Principal
	err        error
}

func (f *fakePrincipalRepo) GetByUID(_ context.Context, uid string) (*models.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.principals[uid], nil
}

func (f *fakePrincipalRepo) GetByEmail(_ context.Context, email string) (*models.Principal, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.principals {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePrincipalRepo) GetByAPIKeyHash(context.Context, string) (*models.Principal, error) {
	return nil, nil
}

func (f *fakePrincipalRepo) Add(_ context.Context, p *models.Principal) error {
	if f.principals == nil {
		f.principals = make(map[string]*models.Principal)
	}
	f.principals[p.UID] = p
	return nil
}

func (f *fakePrincipalRepo) UpdateAPIKeyHash(_ context.Context, uid, hash string) error {
	if p, ok := f.principals[uid]; ok {
		p.APIKeyHash = hash
	}
	return nil
}

func TestBroadcastVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	enabled := &models.Principal{UID: "staff-1", IsActive: true, IsAnonymous: false}
	disabled := &models.Principal{UID: "staff-2", IsActive: false, IsAnonymous: false}
	anonymous := &models.Principal{UID: "anon-1", IsActive: true, IsAnonymous: true}

	repo := &fakePrincipalRepo{principals: map[string]*models.Principal{
		"staff-1": enabled,
		"staff-2": disabled,
		"anon-1":  anonymous,
	}}
	verifier := NewBroadcastVerifier(repo)

	claim := func(uid string) *models.BroadcastClaim {
		return &models.BroadcastClaim{
			SenderID:    "admin_ops",
			SenderUID:   uid,
			Text:        "Schedule updated",
			MessageType: models.MessageTypeSchedule,
		}
	}

	t.Run("enabled non-anonymous principal passes", func(t *testing.T) {
		assert.True(t, verifier.Verify(ctx, claim("staff-1")))
	})

	t.Run("missing sender uid fails", func(t *testing.T) {
		assert.False(t, verifier.Verify(ctx, claim("")))
	})

	t.Run("unknown uid fails", func(t *testing.T) {
		assert.False(t, verifier.Verify(ctx, claim("nobody")))
	})

	t.Run("disabled account fails", func(t *testing.T) {
		assert.False(t, verifier.Verify(ctx, claim("staff-2")))
	})

	t.Run("anonymous provider fails", func(t *testing.T) {
		assert.False(t, verifier.Verify(ctx, claim("anon-1")))
	})

	t.Run("lookup error fails closed", func(t *testing.T) {
		broken := NewBroadcastVerifier(&fakePrincipalRepo{err: fmt.Errorf("db down")})
		assert.False(t, broken.Verify(ctx, claim("staff-1")))
	})
}
