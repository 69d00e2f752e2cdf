package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourlink/server/internal/models"
)

type fakeRoster struct {
	participants map[string][]string
	err          error
}

func (f *fakeRoster) GetParticipantIDs(_ context.Context, tourID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.participants[tourID], nil
}

func (f *fakeRoster) IsParticipant(_ context.Context, tourID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, id := range f.participants[tourID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRoster) Add(context.Context, string, string) error { return nil }

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string][]*models.Device
	removed []string
}

func (f *fakeDeviceRepo) GetByID(context.Context, string) (*models.Device, error) { return nil, nil }

func (f *fakeDeviceRepo) GetActiveForUser(_ context.Context, userID string) ([]*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices[userID], nil
}

func (f *fakeDeviceRepo) Add(context.Context, *models.Device) error { return nil }

func (f *fakeDeviceRepo) ApplyPatch(context.Context, string, *models.PatchSet) error { return nil }

func (f *fakeDeviceRepo) RemoveToken(_ context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, userID+":"+token)
	return nil
}

func (f *fakeDeviceRepo) removedTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

type fakeVerifier struct {
	allow  bool
	called bool
}

func (f *fakeVerifier) Verify(context.Context, *models.BroadcastClaim) bool {
	f.called = true
	return f.allow
}

type fakeSender struct {
	mu       sync.Mutex
	batches  [][]PushMessage
	fail     bool
	rejected map[string]string // token -> error code
}

func (f *fakeSender) SendBatch(_ context.Context, batch []PushMessage) ([]DeliveryTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, fmt.Errorf("gateway unreachable")
	}
	f.batches = append(f.batches, batch)

	tickets := make([]DeliveryTicket, 0, len(batch))
	for _, msg := range batch {
		if code, ok := f.rejected[msg.Token]; ok {
			tickets = append(tickets, DeliveryTicket{Token: msg.Token, Code: code})
		} else {
			tickets = append(tickets, DeliveryTicket{Token: msg.Token, OK: true})
		}
	}
	return tickets, nil
}

func (f *fakeSender) sent() []PushMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []PushMessage
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all
}

func validToken(seed string) string {
	return seed + strings.Repeat("x", 40)
}

func deviceWith(userID, token string) *models.Device {
	return &models.Device{
		ID:        userID + "-device",
		UserID:    userID,
		PushToken: token,
		Notifications: map[string]bool{
			models.NotifyCategoryChat:     true,
			models.NotifyCategorySchedule: true,
		},
		IsActive: true,
	}
}

type fanoutFixture struct {
	roster   *fakeRoster
	devices  *fakeDeviceRepo
	verifier *fakeVerifier
	sender   *fakeSender
	limiter  *RateLimiter
	svc      *FanoutService
}

func newFanoutFixture(t *testing.T) *fanoutFixture {
	t.Helper()

	f := &fanoutFixture{
		roster: &fakeRoster{participants: map[string][]string{
			"tour-1": {"guest-1", "guest-2", "guest-3"},
		}},
		devices: &fakeDeviceRepo{devices: map[string][]*models.Device{
			"guest-1": {deviceWith("guest-1", validToken("t1"))},
			"guest-2": {deviceWith("guest-2", validToken("t2"))},
			"guest-3": {deviceWith("guest-3", validToken("t3"))},
		}},
		verifier: &fakeVerifier{allow: true},
		sender:   &fakeSender{},
		limiter:  NewRateLimiter(time.Hour),
	}
	t.Cleanup(f.limiter.Stop)

	f.svc = NewFanoutService(f.roster, f.devices, f.verifier, f.limiter, f.sender, nil, DefaultFanoutConfig())
	return f
}

func chatEvent(sender string) FanoutEvent {
	return FanoutEvent{
		TourID: "tour-1",
		Claim: models.BroadcastClaim{
			SenderID:    sender,
			Text:        "See you at the lobby at 9",
			MessageType: models.MessageTypeChat,
		},
	}
}

func TestFanoutService_HappyPath(t *testing.T) {
	f := newFanoutFixture(t)

	result := f.svc.HandleEvent(context.Background(), chatEvent("guest-1"))

	assert.True(t, result.Dispatched)
	assert.Equal(t, 2, result.Recipients) // sender excluded
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)

	for _, msg := range f.sender.sent() {
		assert.NotEqual(t, validToken("t1"), msg.Token, "sender must not receive their own message")
		assert.Equal(t, "tour-1", msg.Data["tourId"])
	}
}

func TestFanoutService_Validation(t *testing.T) {
	t.Run("scope key with path delimiter aborts", func(t *testing.T) {
		f := newFanoutFixture(t)
		event := chatEvent("guest-1")
		event.TourID = "tour-1/../../secrets"

		result := f.svc.HandleEvent(context.Background(), event)
		assert.False(t, result.Dispatched)
		assert.Empty(t, f.sender.sent())
	})

	t.Run("oversized body aborts", func(t *testing.T) {
		f := newFanoutFixture(t)
		event := chatEvent("guest-1")
		event.Claim.Text = strings.Repeat("a", models.MaxMessageLength+1)

		result := f.svc.HandleEvent(context.Background(), event)
		assert.False(t, result.Dispatched)
	})

	t.Run("missing sender aborts", func(t *testing.T) {
		f := newFanoutFixture(t)
		event := chatEvent("")

		result := f.svc.HandleEvent(context.Background(), event)
		assert.False(t, result.Dispatched)
	})
}

func TestFanoutService_SpoofRejection(t *testing.T) {
	// A claimed admin sender with no uid must abort with zero messages,
	// regardless of roster size.
	f := newFanoutFixture(t)
	f.verifier.allow = false

	event := FanoutEvent{
		TourID: "tour-1",
		Claim: models.BroadcastClaim{
			SenderID:    "admin_ops",
			Text:        "Urgent: itinerary changed",
			MessageType: models.MessageTypeChat,
		},
	}

	result := f.svc.HandleEvent(context.Background(), event)

	assert.False(t, result.Dispatched)
	assert.Empty(t, f.sender.sent())
	assert.True(t, f.verifier.called, "admin claim must always reach the verifier")
}

func TestFanoutService_NonParticipantRejected(t *testing.T) {
	f := newFanoutFixture(t)

	result := f.svc.HandleEvent(context.Background(), chatEvent("stranger"))

	assert.False(t, result.Dispatched)
	assert.Empty(t, f.sender.sent())
	assert.False(t, f.verifier.called, "plain sender never reaches the verifier")
}

func TestFanoutService_RateLimit(t *testing.T) {
	f := newFanoutFixture(t)

	var dispatched int
	for i := 0; i < 20; i++ {
		if f.svc.HandleEvent(context.Background(), chatEvent("guest-1")).Dispatched {
			dispatched++
		}
	}
	// Default chat budget is 12 per minute.
	assert.Equal(t, 12, dispatched)
}

func TestFanoutService_RecipientFiltering(t *testing.T) {
	t.Run("preference off skips silently", func(t *testing.T) {
		f := newFanoutFixture(t)
		f.devices.devices["guest-2"][0].Notifications[models.NotifyCategoryChat] = false

		result := f.svc.HandleEvent(context.Background(), chatEvent("guest-1"))

		assert.True(t, result.Dispatched)
		assert.Equal(t, 1, result.Recipients)
		require.Len(t, f.sender.sent(), 1)
		assert.Equal(t, validToken("t3"), f.sender.sent()[0].Token)
	})

	t.Run("missing token skips silently", func(t *testing.T) {
		f := newFanoutFixture(t)
		f.devices.devices["guest-2"][0].PushToken = ""

		result := f.svc.HandleEvent(context.Background(), chatEvent("guest-1"))
		assert.Equal(t, 1, result.Recipients)
	})

	t.Run("malformed token skips and queues removal", func(t *testing.T) {
		f := newFanoutFixture(t)
		f.devices.devices["guest-2"][0].PushToken = "bad token!"

		result := f.svc.HandleEvent(context.Background(), chatEvent("guest-1"))
		assert.Equal(t, 1, result.Recipients)

		assert.Eventually(t, func() bool {
			for _, r := range f.devices.removedTokens() {
				if r == "guest-2:bad token!" {
					return true
				}
			}
			return false
		}, time.Second, 10*time.Millisecond)
	})
}

func TestFanoutService_Shaping(t *testing.T) {
	t.Run("long bodies truncate with ellipsis", func(t *testing.T) {
		f := newFanoutFixture(t)
		event := chatEvent("guest-1")
		event.Claim.Text = strings.Repeat("a", 500)

		f.svc.HandleEvent(context.Background(), event)
		require.NotEmpty(t, f.sender.sent())
		body := f.sender.sent()[0].Body
		assert.Len(t, []rune(body), 240)
		assert.True(t, strings.HasSuffix(body, "…"))
	})

	t.Run("admin broadcast gets high priority and stripped prefix", func(t *testing.T) {
		f := newFanoutFixture(t)
		event := FanoutEvent{
			TourID: "tour-1",
			Claim: models.BroadcastClaim{
				SenderID:    "admin_ops",
				SenderUID:   "staff-1",
				Text:        models.BroadcastPrefix + "Bus leaves early tomorrow",
				MessageType: models.MessageTypeChat,
			},
		}

		f.svc.HandleEvent(context.Background(), event)
		require.NotEmpty(t, f.sender.sent())
		msg := f.sender.sent()[0]
		assert.Equal(t, "high", msg.Priority)
		assert.Equal(t, "Bus leaves early tomorrow", msg.Body)
		assert.Equal(t, "TourLink update", msg.Title)
	})

	t.Run("schedule change uses schedule category", func(t *testing.T) {
		f := newFanoutFixture(t)
		event := chatEvent("guest-1")
		event.Claim.MessageType = models.MessageTypeSchedule

		f.svc.HandleEvent(context.Background(), event)
		require.NotEmpty(t, f.sender.sent())
		assert.Equal(t, models.NotifyCategorySchedule, f.sender.sent()[0].Category)
		assert.Equal(t, "Schedule change", f.sender.sent()[0].Title)
	})
}

func TestFanoutService_Dispatch(t *testing.T) {
	t.Run("batch transport failure counts every message failed", func(t *testing.T) {
		f := newFanoutFixture(t)
		f.sender.fail = true

		result := f.svc.HandleEvent(context.Background(), chatEvent("guest-1"))
		assert.True(t, result.Dispatched)
		assert.Equal(t, 0, result.SuccessCount)
		assert.Equal(t, 2, result.ErrorCount)
	})

	t.Run("unregistered ticket queues token removal", func(t *testing.T) {
		f := newFanoutFixture(t)
		f.sender.rejected = map[string]string{validToken("t2"): "UNREGISTERED"}

		result := f.svc.HandleEvent(context.Background(), chatEvent("guest-1"))
		assert.Equal(t, 1, result.SuccessCount)
		assert.Equal(t, 1, result.ErrorCount)

		assert.Eventually(t, func() bool {
			return len(f.devices.removedTokens()) == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("messages split into bounded batches", func(t *testing.T) {
		f := newFanoutFixture(t)
		cfg := DefaultFanoutConfig()
		cfg.BatchSize = 1
		f.svc = NewFanoutService(f.roster, f.devices, f.verifier, f.limiter, f.sender, nil, cfg)

		f.svc.HandleEvent(context.Background(), chatEvent("guest-1"))
		assert.Len(t, f.sender.batches, 2)
	})
}

func TestChunkMessages(t *testing.T) {
	msgs := make([]PushMessage, 7)
	chunks := ChunkMessages(msgs, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)
	assert.Len(t, chunks[2], 1)

	assert.Nil(t, ChunkMessages(nil, 3))
}
