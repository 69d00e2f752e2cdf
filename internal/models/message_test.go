package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastClaimValidate(t *testing.T) {
	valid := func() BroadcastClaim {
		return BroadcastClaim{
			SenderID:    "guest-42",
			Text:        "Meet in the lobby at nine",
			MessageType: MessageTypeChat,
		}
	}

	t.Run("accepts a valid chat claim", func(t *testing.T) {
		claim := valid()
		assert.NoError(t, claim.Validate())
	})

	t.Run("accepts a schedule change claim", func(t *testing.T) {
		claim := valid()
		claim.MessageType = MessageTypeSchedule
		assert.NoError(t, claim.Validate())
	})

	t.Run("rejects blank sender ID", func(t *testing.T) {
		claim := valid()
		claim.SenderID = "   "
		assert.ErrorIs(t, claim.Validate(), ErrEmptySenderID)
	})

	t.Run("rejects blank text", func(t *testing.T) {
		claim := valid()
		claim.Text = "\t\n"
		assert.ErrorIs(t, claim.Validate(), ErrEmptyMessageText)
	})

	t.Run("rejects oversized text", func(t *testing.T) {
		claim := valid()
		claim.Text = strings.Repeat("a", MaxMessageLength+1)
		assert.ErrorIs(t, claim.Validate(), ErrMessageTooLong)
	})

	t.Run("length limit counts runes, not bytes", func(t *testing.T) {
		claim := valid()
		claim.Text = strings.Repeat("ü", MaxMessageLength)
		assert.NoError(t, claim.Validate())

		claim.Text += "ü"
		assert.ErrorIs(t, claim.Validate(), ErrMessageTooLong)
	})

	t.Run("rejects unknown message type", func(t *testing.T) {
		claim := valid()
		claim.MessageType = "announcement"
		assert.ErrorIs(t, claim.Validate(), ErrInvalidMessageType)
	})
}

func TestClaimsAdmin(t *testing.T) {
	t.Run("prefixed sender claims admin", func(t *testing.T) {
		claim := BroadcastClaim{SenderID: "admin_ops"}
		assert.True(t, claim.ClaimsAdmin())
	})

	t.Run("plain sender does not", func(t *testing.T) {
		claim := BroadcastClaim{SenderID: "guest-42"}
		assert.False(t, claim.ClaimsAdmin())
	})

	t.Run("prefix elsewhere in the ID does not count", func(t *testing.T) {
		claim := BroadcastClaim{SenderID: "guest_admin_42"}
		assert.False(t, claim.ClaimsAdmin())
	})
}

func TestValidateScopeKey(t *testing.T) {
	t.Run("accepts plain identifiers", func(t *testing.T) {
		assert.NoError(t, ValidateScopeKey("tour-2024-iceland"))
	})

	t.Run("rejects empty key", func(t *testing.T) {
		assert.ErrorIs(t, ValidateScopeKey(""), ErrEmptyScopeKey)
	})

	t.Run("rejects every reserved character", func(t *testing.T) {
		for _, r := range "/.#$[]" {
			err := ValidateScopeKey("tour" + string(r) + "x")
			assert.ErrorIs(t, err, ErrInvalidScopeKey, "character %q", r)
		}
	})
}

func TestTruncateBody(t *testing.T) {
	t.Run("returns short bodies unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", TruncateBody("hello", 240))
	})

	t.Run("returns exact-limit bodies unchanged", func(t *testing.T) {
		body := strings.Repeat("x", 240)
		assert.Equal(t, body, TruncateBody(body, 240))
	})

	t.Run("truncates with ellipsis", func(t *testing.T) {
		body := strings.Repeat("x", 300)
		got := TruncateBody(body, 240)
		runes := []rune(got)
		assert.Len(t, runes, 240)
		assert.Equal(t, '…', runes[239])
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		body := strings.Repeat("ü", 250)
		got := TruncateBody(body, 240)
		assert.Len(t, []rune(got), 240)
	})
}

func TestStripBroadcastPrefix(t *testing.T) {
	assert.Equal(t, "Bus leaves early", StripBroadcastPrefix("[TourLink] Bus leaves early"))
	assert.Equal(t, "Bus leaves early", StripBroadcastPrefix("Bus leaves early"))
}
