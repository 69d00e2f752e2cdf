package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Principal is an authenticated identity known to the auth authority.
// Staff principals may broadcast to tours they do not participate in,
// but only after broadcast verification confirms the account is enabled
// and non-anonymous.
type Principal struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"` // Never exposed
	APIKeyHash   string    `json:"-"` // Never exposed
	IsStaff      bool      `json:"isStaff"`
	IsAnonymous  bool      `json:"isAnonymous"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PrincipalResponse is the safe response format
type PrincipalResponse struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	IsStaff     bool      `json:"isStaff"`
	CreatedAt   time.Time `json:"createdAt"`
	IsActive    bool      `json:"isActive"`
}

// NewPrincipal creates a new non-anonymous principal
func NewPrincipal(email, displayName string, isStaff bool) (*Principal, error) {
	email = NormalizeEmail(email)
	displayName = strings.TrimSpace(displayName)

	if email == "" {
		return nil, ErrEmptyEmail
	}
	if displayName == "" {
		return nil, ErrEmptyDisplayName
	}

	return &Principal{
		UID:         uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		IsStaff:     isStaff,
		IsAnonymous: false,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ToResponse converts Principal to PrincipalResponse (safe for API)
func (p *Principal) ToResponse() PrincipalResponse {
	return PrincipalResponse{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		IsStaff:     p.IsStaff,
		CreatedAt:   p.CreatedAt,
		IsActive:    p.IsActive,
	}
}

// SetPassword hashes and stores the password
func (p *Principal) SetPassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	p.PasswordHash = string(hash)
	return nil
}

// VerifyPassword checks a password against the stored hash
func (p *Principal) VerifyPassword(password string) bool {
	if p.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) == nil
}

// GenerateAPIKey creates a secure random API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// HashAPIKey creates a SHA256 hash of an API key
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

// Common principal errors
var (
	ErrEmptyDisplayName  = fmt.Errorf("display name is required")
	ErrPasswordTooShort  = fmt.Errorf("password must be at least 8 characters")
	ErrPrincipalNotFound = fmt.Errorf("principal not found")
	ErrPrincipalDisabled = fmt.Errorf("principal account is disabled")
)
