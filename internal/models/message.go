package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Message types understood by the notification pipeline
const (
	MessageTypeChat     = "chat"
	MessageTypeSchedule = "schedule_change"
)

// AdminSenderPrefix marks a sender ID as a claimed admin broadcaster.
// The prefix is a hint only; the claim must still pass broadcast
// verification before it is honored.
const AdminSenderPrefix = "admin_"

// BroadcastPrefix is the canonical prefix admin tooling puts in front of
// broadcast bodies. It is stripped before shaping the push notification.
const BroadcastPrefix = "[TourLink] "

// MaxMessageLength bounds the raw message body accepted from a client,
// counted in runes to match how bodies are truncated for display
const MaxMessageLength = 10000

// BroadcastClaim is the untrusted payload of an inbound message event.
// SenderUID is only meaningful after broadcast verification.
type BroadcastClaim struct {
	SenderID    string `json:"senderId"`
	SenderUID   string `json:"senderUid,omitempty"`
	Text        string `json:"text"`
	MessageType string `json:"messageType"`
}

// ClaimsAdmin reports whether the sender ID carries the admin hint prefix
func (c *BroadcastClaim) ClaimsAdmin() bool {
	return strings.HasPrefix(c.SenderID, AdminSenderPrefix)
}

// Validate checks structural requirements of an inbound claim
func (c *BroadcastClaim) Validate() error {
	if strings.TrimSpace(c.SenderID) == "" {
		return ErrEmptySenderID
	}
	if strings.TrimSpace(c.Text) == "" {
		return ErrEmptyMessageText
	}
	if utf8.RuneCountInString(c.Text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	switch c.MessageType {
	case MessageTypeChat, MessageTypeSchedule:
	default:
		return ErrInvalidMessageType
	}
	return nil
}

// ChatMessage is a persisted tour chat message
type ChatMessage struct {
	ID        string    `json:"id"`
	TourID    string    `json:"tourId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// scopeReserved holds characters that must never appear in a scope key.
// They are path delimiters or reserved by the backing store.
const scopeReserved = "/.#$[]"

// ValidateScopeKey rejects scope identifiers that could traverse into
// unintended records in a tree-shaped store
func ValidateScopeKey(key string) error {
	if key == "" {
		return ErrEmptyScopeKey
	}
	if strings.ContainsAny(key, scopeReserved) {
		return ErrInvalidScopeKey
	}
	return nil
}

// TruncateBody shortens a message body to at most limit characters,
// appending an ellipsis when truncation occurred
func TruncateBody(body string, limit int) string {
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

// StripBroadcastPrefix removes the canonical broadcast prefix if present
func StripBroadcastPrefix(body string) string {
	return strings.TrimPrefix(body, BroadcastPrefix)
}

// Common message errors
var (
	ErrEmptySenderID      = fmt.Errorf("sender ID is required")
	ErrEmptyMessageText   = fmt.Errorf("message text is required")
	ErrMessageTooLong     = fmt.Errorf("message text exceeds %d characters", MaxMessageLength)
	ErrInvalidMessageType = fmt.Errorf("message type must be %q or %q", MessageTypeChat, MessageTypeSchedule)
	ErrEmptyScopeKey      = fmt.Errorf("scope key is required")
	ErrInvalidScopeKey    = fmt.Errorf("scope key contains reserved characters")
)
