package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notification categories keyed in a device's preference map
const (
	NotifyCategoryChat     = "chat"
	NotifyCategorySchedule = "schedule"
)

// Device represents a registered mobile device for push notifications
type Device struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	DeviceName    string          `json:"deviceName"`
	Platform      string          `json:"platform"` // "ios" or "android"
	PushToken     string          `json:"-"`        // Never expose the push token
	Notifications map[string]bool `json:"notifications"`
	RegisteredAt  time.Time       `json:"registeredAt"`
	LastSeenAt    time.Time       `json:"lastSeenAt"`
	IsActive      bool            `json:"isActive"`
}

// DeviceResponse is the safe response format
type DeviceResponse struct {
	ID            string          `json:"id"`
	DeviceName    string          `json:"deviceName"`
	Platform      string          `json:"platform"`
	Notifications map[string]bool `json:"notifications"`
	RegisteredAt  time.Time       `json:"registeredAt"`
	LastSeenAt    time.Time       `json:"lastSeenAt"`
	IsActive      bool            `json:"isActive"`
}

// RegisterDeviceRequest is the request body for registering a device
type RegisterDeviceRequest struct {
	DeviceName string `json:"deviceName"`
	Platform   string `json:"platform"`
	PushToken  string `json:"pushToken"`
}

// UpdateTokenRequest is for updating a device's push token
type UpdateTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// UpdateNotificationsRequest is for updating notification preferences
type UpdateNotificationsRequest struct {
	Notifications map[string]bool `json:"notifications"`
}

// NewDevice creates a new device registration with notifications enabled
// for every category by default
func NewDevice(userID, deviceName, platform, pushToken string) (*Device, error) {
	deviceName = strings.TrimSpace(deviceName)
	platform = strings.TrimSpace(strings.ToLower(platform))
	pushToken = strings.TrimSpace(pushToken)

	if deviceName == "" {
		return nil, ErrEmptyDeviceName
	}
	if platform != "ios" && platform != "android" {
		return nil, ErrInvalidPlatform
	}
	if pushToken == "" {
		return nil, ErrEmptyPushToken
	}

	now := time.Now().UTC()
	return &Device{
		ID:         uuid.New().String(),
		UserID:     userID,
		DeviceName: deviceName,
		Platform:   platform,
		PushToken:  pushToken,
		Notifications: map[string]bool{
			NotifyCategoryChat:     true,
			NotifyCategorySchedule: true,
		},
		RegisteredAt: now,
		LastSeenAt:   now,
		IsActive:     true,
	}, nil
}

// ToResponse converts Device to DeviceResponse (safe for API)
func (d *Device) ToResponse() DeviceResponse {
	return DeviceResponse{
		ID:            d.ID,
		DeviceName:    d.DeviceName,
		Platform:      d.Platform,
		Notifications: d.Notifications,
		RegisteredAt:  d.RegisteredAt,
		LastSeenAt:    d.LastSeenAt,
		IsActive:      d.IsActive,
	}
}

// NotificationsEnabled reports whether the device accepts pushes for the
// category. Missing entries default to enabled.
func (d *Device) NotificationsEnabled(category string) bool {
	if d.Notifications == nil {
		return true
	}
	enabled, ok := d.Notifications[category]
	if !ok {
		return true
	}
	return enabled
}

// minPushTokenLength is below any token a real provider issues
const minPushTokenLength = 32

// ValidPushToken performs a cheap structural check on a push token.
// Tokens that fail this check are queued for removal from the registry.
func ValidPushToken(token string) bool {
	if len(token) < minPushTokenLength {
		return false
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == ':' || r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

// Common device errors
var (
	ErrEmptyDeviceName = fmt.Errorf("device name is required")
	ErrInvalidPlatform = fmt.Errorf("platform must be 'ios' or 'android'")
	ErrEmptyPushToken  = fmt.Errorf("push token is required")
	ErrDeviceNotFound  = fmt.Errorf("device not found")
)
