package grants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vault-backend/internal/documents"
	"vault-backend/internal/notify"
	"vault-backend/internal/shared/storage/object"
)

// Grants expire this long after creation.
const grantTTL = 24 * time.Hour

// Token collisions are astronomically unlikely at 256 bits; the retry loop
// exists so a collision degrades to a second attempt rather than a failure.
const tokenRetries = 3

// DocumentSource resolves documents for the grant manager. Satisfied by
// documents.Service.
type DocumentSource interface {
	Get(ctx context.Context, ownerID, docID string) (documents.Document, error)
}

// Service contains business logic for the share grant manager.
type Service struct {
	Repo     Repo
	Docs     DocumentSource
	Notifier notify.Sender
	Store    object.ObjectStore

	// BaseURL is the public site root the share link is built against.
	BaseURL string

	// Now is swappable in tests.
	Now func() time.Time
}

// CreateRequest carries the grant parameters supplied by the owner.
type CreateRequest struct {
	DocumentID     string
	RecipientEmail string
	Permission     string
	OneTime        *bool
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ShareLink builds the recipient-facing URL for a grant token.
func (s *Service) ShareLink(token string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/shared/" + token
}

// Create issues a grant against one of the owner's documents and emails the
// recipient a link. The grant snapshot is taken from the document as it
// exists now. When the email cannot be delivered the grant still stands and
// the returned error wraps ErrNotificationFailed.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (ShareGrant, error) {
	if req.DocumentID == "" {
		return ShareGrant{}, fmt.Errorf("%w: document id required", ErrInvalidInput)
	}
	recipient := strings.TrimSpace(strings.ToLower(req.RecipientEmail))
	if recipient == "" || !strings.Contains(recipient, "@") {
		return ShareGrant{}, fmt.Errorf("%w: valid recipient email required", ErrInvalidInput)
	}
	permission, err := ParsePermission(req.Permission)
	if err != nil {
		return ShareGrant{}, err
	}

	doc, err := s.Docs.Get(ctx, ownerID, req.DocumentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return ShareGrant{}, fmt.Errorf("%w: document %s", ErrNotFound, req.DocumentID)
		}
		return ShareGrant{}, err
	}

	oneTime := true
	if req.OneTime != nil {
		oneTime = *req.OneTime
	}

	now := s.now()
	grant := ShareGrant{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		OwnerID:        ownerID,
		RecipientEmail: recipient,
		Permission:     permission,
		OneTime:        oneTime,
		FileURL:        doc.FileURL,
		DocType:        string(doc.DocType),
		Hint:           doc.Hint,
		CreatedAt:      now,
		ExpiresAt:      now.Add(grantTTL),
	}

	for attempt := 0; ; attempt++ {
		token, err := NewToken()
		if err != nil {
			return ShareGrant{}, err
		}
		grant.Token = token
		err = s.Repo.Create(ctx, grant)
		if err == nil {
			break
		}
		if errors.Is(err, ErrTokenExists) && attempt < tokenRetries {
			continue
		}
		return ShareGrant{}, err
	}

	if err := s.notify(ctx, grant); err != nil {
		return grant, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return grant, nil
}

func (s *Service) notify(ctx context.Context, grant ShareGrant) error {
	if s.Notifier == nil {
		return nil
	}
	return s.Notifier.Send(ctx, grant.RecipientEmail, map[string]string{
		"to_email":    grant.RecipientEmail,
		"doc_type":    grant.DocType,
		"link":        s.ShareLink(grant.Token),
		"expiry":      grant.ExpiresAt.Format(time.RFC1123),
		"access_type": grant.Permission.Label(),
	})
}

// List returns the owner's grants.
func (s *Service) List(ctx context.Context, ownerID string) ([]ShareGrant, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", ErrInvalidInput)
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Revoke deletes a grant after confirming the caller owns it.
func (s *Service) Revoke(ctx context.Context, ownerID, grantID string) error {
	grant, err := s.Repo.GetByID(ctx, grantID)
	if err != nil {
		return err
	}
	if grant.OwnerID != ownerID {
		return ErrForbidden
	}
	return s.Repo.Delete(ctx, grantID)
}

// RevokeByDocument retires all grants issued against a document. Satisfies
// documents.GrantRevoker.
func (s *Service) RevokeByDocument(ctx context.Context, docID, ownerID string) (int, error) {
	return s.Repo.DeleteByDocument(ctx, docID, ownerID)
}

// Validate resolves a token to its access view. A one-time grant is
// consumed here, atomically, before any data is returned: of any number of
// concurrent validations exactly one succeeds and the rest see ErrConsumed.
func (s *Service) Validate(ctx context.Context, token string) (Access, error) {
	grant, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return Access{}, err
	}
	if !s.now().Before(grant.ExpiresAt) {
		return Access{}, ErrExpired
	}
	if grant.OneTime {
		won, err := s.Repo.Consume(ctx, grant.ID, s.now())
		if err != nil {
			return Access{}, err
		}
		if !won {
			return Access{}, ErrConsumed
		}
	}
	return Access{
		DocumentID: grant.DocumentID,
		DocType:    grant.DocType,
		Hint:       grant.Hint,
		FileURL:    grant.FileURL,
		Permission: grant.Permission,
		OneTime:    grant.OneTime,
		ExpiresAt:  grant.ExpiresAt,
	}, nil
}

// Download resolves a token to a downloadable URL, consuming the grant when
// it is one-time. The permission gate runs before consumption so a
// view-only request can never burn a one-time grant.
func (s *Service) Download(ctx context.Context, token string) (string, error) {
	grant, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if !s.now().Before(grant.ExpiresAt) {
		return "", ErrExpired
	}
	if grant.Permission != PermissionDownload {
		return "", fmt.Errorf("%w: grant is view-only", ErrForbidden)
	}
	if grant.OneTime {
		won, err := s.Repo.Consume(ctx, grant.ID, s.now())
		if err != nil {
			return "", err
		}
		if !won {
			return "", ErrConsumed
		}
	}
	return s.Store.DownloadURL(ctx, grant.FileURL)
}
