package documents

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrGrantRevocation marks a delete that succeeded but could not revoke
	// the document's outstanding share grants.
	ErrGrantRevocation = errors.New("share grant revocation failed")
)
