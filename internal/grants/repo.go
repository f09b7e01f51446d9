package grants

import (
	"context"
	"time"
)

// Repo defines persistence operations for share grants.
//
// Consume is the store-level compare-and-set backing one-time semantics:
// it flips consumed from false to true and reports whether this caller won.
// Two concurrent calls for the same grant must never both report true.
type Repo interface {
	Create(ctx context.Context, grant ShareGrant) error
	GetByID(ctx context.Context, grantID string) (ShareGrant, error)
	GetByToken(ctx context.Context, token string) (ShareGrant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]ShareGrant, error)
	Consume(ctx context.Context, grantID string, at time.Time) (bool, error)
	Delete(ctx context.Context, grantID string) error
	DeleteByDocument(ctx context.Context, docID, ownerID string) (int, error)
}
