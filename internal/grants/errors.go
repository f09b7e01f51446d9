package grants

import "errors"

var (
	ErrNotFound     = errors.New("grant not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrExpired      = errors.New("grant expired")
	ErrConsumed     = errors.New("grant already used")
	ErrForbidden    = errors.New("not the grant owner")

	// ErrNotificationFailed marks a grant that was created but whose share
	// email could not be delivered.
	ErrNotificationFailed = errors.New("share notification failed")

	// ErrTokenExists is reported by stores when a token collides with a
	// live grant's token.
	ErrTokenExists = errors.New("token already in use")
)
