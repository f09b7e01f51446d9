package identity

import (
	"fmt"
	"time"
)

// User is a registered account.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Purpose scopes what a phone challenge may be redeemed for.
type Purpose string

const (
	PurposeRegister    Purpose = "register"
	PurposeLogin       Purpose = "login"
	PurposePhoneChange Purpose = "phone_change"
)

// ParsePurpose validates a raw purpose at the boundary.
func ParsePurpose(raw string) (Purpose, error) {
	switch Purpose(raw) {
	case PurposeRegister, PurposeLogin, PurposePhoneChange:
		return Purpose(raw), nil
	}
	return "", fmt.Errorf("%w: unknown purpose %q", ErrInvalidInput, raw)
}

// Challenge is a short-lived, single-use phone verification. Each challenge
// carries its own state so concurrent verifications from different flows
// cannot clobber each other. UserID is set only for purposes bound to an
// existing account (phone_change).
type Challenge struct {
	ID        string
	Phone     string
	Purpose   Purpose
	UserID    string
	CodeHash  string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}
