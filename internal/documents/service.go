package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"vault-backend/internal/shared/storage/object"
)

// GrantRevoker retires outstanding share grants for a document. Implemented
// by the share grant manager; injected here to keep the packages acyclic.
type GrantRevoker interface {
	RevokeByDocument(ctx context.Context, docID, ownerID string) (int, error)
}

// Service contains business logic for the document registry.
type Service struct {
	Store  object.ObjectStore
	Repo   Repo
	Grants GrantRevoker
}

// UpdateRequest carries the mutable document fields. A nil Hint means
// "leave unchanged"; a nil File keeps the current stored object.
type UpdateRequest struct {
	Hint     *string
	FileName string
	File     io.Reader
}

// Create saves the file to object storage and records the document. The
// store call happens first so a failed upload never leaves a partial record.
func (s *Service) Create(ctx context.Context, ownerID, ownerEmail, rawDocType, hint, fileName string, file io.Reader) (Document, error) {
	if file == nil || fileName == "" {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	docType, err := ParseDocType(rawDocType)
	if err != nil {
		return Document{}, err
	}

	fileURL, _, _, err := s.Store.Save(ctx, ownerID, fileName, file)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		OwnerEmail: ownerEmail,
		DocType:    docType,
		Hint:       strings.TrimSpace(hint),
		FileURL:    fileURL,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	return doc, nil
}

// List returns the owner's documents.
func (s *Service) List(ctx context.Context, ownerID string) ([]Document, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id required", ErrInvalidInput)
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Get returns a single document for an owner.
func (s *Service) Get(ctx context.Context, ownerID, docID string) (Document, error) {
	return s.Repo.GetByID(ctx, ownerID, docID)
}

// Update changes the hint and/or replaces the stored file. A replaced file's
// previous object is not reclaimed from the object store.
func (s *Service) Update(ctx context.Context, ownerID, docID string, req UpdateRequest) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, ownerID, docID)
	if err != nil {
		return Document{}, err
	}

	if req.Hint != nil {
		hint := strings.TrimSpace(*req.Hint)
		if hint == "" {
			return Document{}, fmt.Errorf("%w: hint cannot be empty", ErrInvalidInput)
		}
		doc.Hint = hint
	}

	if req.File != nil {
		if req.FileName == "" {
			return Document{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
		}
		fileURL, _, _, err := s.Store.Save(ctx, ownerID, req.FileName, req.File)
		if err != nil {
			return Document{}, err
		}
		doc.FileURL = fileURL
	}

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete destroys the document record and revokes its outstanding share
// grants. The two steps are not transactional: when revocation fails the
// delete stands and the error reports the partial outcome.
func (s *Service) Delete(ctx context.Context, ownerID, docID string) (int, error) {
	if err := s.Repo.Delete(ctx, ownerID, docID); err != nil {
		return 0, err
	}
	if s.Grants == nil {
		return 0, nil
	}
	revoked, err := s.Grants.RevokeByDocument(ctx, docID, ownerID)
	if err != nil {
		return revoked, fmt.Errorf("%w: %v", ErrGrantRevocation, err)
	}
	return revoked, nil
}
