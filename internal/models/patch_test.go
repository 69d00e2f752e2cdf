package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchSet(t *testing.T) {
	t.Run("sets chain and keep order", func(t *testing.T) {
		patch := NewPatchSet().
			Set("deviceName", "Pixel").
			Set("isActive", false)

		require.NoError(t, patch.Validate())
		ops := patch.Ops()
		require.Len(t, ops, 2)
		assert.Equal(t, "deviceName", ops[0].Field)
		assert.Equal(t, "Pixel", ops[0].Value)
		assert.Equal(t, "isActive", ops[1].Field)
		assert.Equal(t, false, ops[1].Value)
	})

	t.Run("rejects empty set", func(t *testing.T) {
		patch := NewPatchSet()
		assert.True(t, patch.Empty())
		assert.ErrorIs(t, patch.Validate(), ErrEmptyPatchSet)
	})

	t.Run("rejects empty field name", func(t *testing.T) {
		patch := NewPatchSet().Set("", "value")
		assert.ErrorIs(t, patch.Validate(), ErrEmptyPatchField)
	})

	t.Run("rejects duplicate field", func(t *testing.T) {
		patch := NewPatchSet().
			Set("pushToken", "a").
			Set("pushToken", "b")
		assert.ErrorIs(t, patch.Validate(), ErrDuplicatePatchField)
	})
}

func TestBookingNormalization(t *testing.T) {
	t.Run("reference is trimmed and upper-cased", func(t *testing.T) {
		assert.Equal(t, "ABC123", NormalizeReference("  abc123 "))
	})

	t.Run("email is trimmed and lower-cased", func(t *testing.T) {
		assert.Equal(t, "guest@example.com", NormalizeEmail(" Guest@Example.COM "))
	})

	t.Run("new booking applies both", func(t *testing.T) {
		booking, err := NewBooking(" ab12 ", "Pat", " Pat@Example.com ", "tour-1", false)
		require.NoError(t, err)
		assert.Equal(t, "AB12", booking.Reference)
		assert.Equal(t, "pat@example.com", booking.GuestEmail)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		_, err := NewBooking("", "Pat", "p@e.com", "tour-1", false)
		assert.ErrorIs(t, err, ErrEmptyReference)

		_, err = NewBooking("AB12", "Pat", "  ", "tour-1", false)
		assert.ErrorIs(t, err, ErrEmptyEmail)

		_, err = NewBooking("AB12", "Pat", "p@e.com", "", false)
		assert.ErrorIs(t, err, ErrEmptyTourID)
	})
}

func TestDeviceNotifications(t *testing.T) {
	t.Run("new device enables every category", func(t *testing.T) {
		device, err := NewDevice("user-1", "Pixel 9", "Android", "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6")
		require.NoError(t, err)
		assert.Equal(t, "android", device.Platform)
		assert.True(t, device.NotificationsEnabled(NotifyCategoryChat))
		assert.True(t, device.NotificationsEnabled(NotifyCategorySchedule))
	})

	t.Run("missing category defaults to enabled", func(t *testing.T) {
		device := &Device{Notifications: map[string]bool{NotifyCategoryChat: false}}
		assert.False(t, device.NotificationsEnabled(NotifyCategoryChat))
		assert.True(t, device.NotificationsEnabled(NotifyCategorySchedule))
	})

	t.Run("nil map defaults to enabled", func(t *testing.T) {
		device := &Device{}
		assert.True(t, device.NotificationsEnabled(NotifyCategoryChat))
	})
}

func TestValidPushToken(t *testing.T) {
	t.Run("accepts a realistic token", func(t *testing.T) {
		assert.True(t, ValidPushToken("dXg3:APA91b-FkT_0v9a8b7c6d5e4f3g2h1i0j"))
	})

	t.Run("rejects short tokens", func(t *testing.T) {
		assert.False(t, ValidPushToken("short"))
	})

	t.Run("rejects forbidden characters", func(t *testing.T) {
		assert.False(t, ValidPushToken("dXg3APA91bFkT0v9a8b7c6d5e4f3g2h1 i0j"))
		assert.False(t, ValidPushToken("dXg3APA91bFkT0v9a8b7c6d5e4f3g2h/i0j!"))
	})
}
