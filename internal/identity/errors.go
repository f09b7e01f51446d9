package identity

import "errors"

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuth covers every authentication failure. Callers get no hint
	// about which factor was wrong.
	ErrAuth = errors.New("authentication failed")

	// ErrExists is reported when a registration collides with an existing
	// email or phone.
	ErrExists = errors.New("account already exists")
)
