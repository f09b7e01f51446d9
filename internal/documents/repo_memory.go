package documents

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // ownerID -> documents, insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

// Create appends a document to the owner's collection.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.OwnerID] = append(r.data[doc.OwnerID], doc)
	return nil
}

// GetByID returns a document by ID for an owner.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, docID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := r.data[ownerID]
	for i := range docs {
		if docs[i].ID == docID {
			return docs[i], nil
		}
	}
	return Document{}, ErrNotFound
}

// ListByOwner returns the owner's documents in insertion order.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := r.data[ownerID]
	out := make([]Document, len(docs))
	copy(out, docs)
	return out, nil
}

// Update replaces the stored document matching id and owner.
func (r *MemoryRepo) Update(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[doc.OwnerID]
	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = doc
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes a document; deleting an unknown id reports ErrNotFound.
func (r *MemoryRepo) Delete(ctx context.Context, ownerID, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[ownerID]
	for i := range docs {
		if docs[i].ID == docID {
			r.data[ownerID] = append(docs[:i], docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

var _ Repo = (*MemoryRepo)(nil)
