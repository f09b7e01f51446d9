package documents

import "context"

// Repo defines persistence operations for documents. All reads and writes
// are scoped to the owning identity.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, ownerID, docID string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Document, error)
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, ownerID, docID string) error
}
