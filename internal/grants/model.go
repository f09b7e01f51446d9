package grants

import (
	"fmt"
	"time"
)

// Permission scopes what a share recipient may do with the document.
type Permission string

const (
	PermissionView     Permission = "view"
	PermissionDownload Permission = "download"
)

// ParsePermission validates a raw permission at the boundary.
func ParsePermission(raw string) (Permission, error) {
	switch Permission(raw) {
	case PermissionView:
		return PermissionView, nil
	case PermissionDownload:
		return PermissionDownload, nil
	}
	return "", fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, raw)
}

// Label returns the human-readable form used in share emails.
func (p Permission) Label() string {
	if p == PermissionDownload {
		return "View + Download"
	}
	return "View Only"
}

// ShareGrant is a time-boxed, token-addressable permission record linking a
// document to a recipient. FileURL, DocType and Hint are a snapshot taken at
// creation so later document edits do not alter already-issued grants.
type ShareGrant struct {
	ID             string
	DocumentID     string
	OwnerID        string
	RecipientEmail string
	Permission     Permission
	Token          string
	OneTime        bool
	FileURL        string
	DocType        string
	Hint           string
	Consumed       bool
	ConsumedAt     *time.Time
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Access is the validated view handed to a share recipient.
type Access struct {
	DocumentID string
	DocType    string
	Hint       string
	FileURL    string
	Permission Permission
	OneTime    bool
	ExpiresAt  time.Time
}
