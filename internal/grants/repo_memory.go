package grants

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.Mutex
	grants  map[string]ShareGrant // grantID -> grant
	byToken map[string]string     // token -> grantID
	now     func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		grants:  make(map[string]ShareGrant),
		byToken: make(map[string]string),
		now:     time.Now,
	}
}

// Create stores a grant. Tokens must be unique among non-expired grants;
// an expired holder of the same token is evicted.
func (r *MemoryRepo) Create(ctx context.Context, grant ShareGrant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existingID, ok := r.byToken[grant.Token]; ok {
		existing, found := r.grants[existingID]
		if found && r.now().Before(existing.ExpiresAt) {
			return ErrTokenExists
		}
		delete(r.grants, existingID)
	}
	r.grants[grant.ID] = grant
	r.byToken[grant.Token] = grant.ID
	return nil
}

// GetByID returns a grant by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, grantID string) (ShareGrant, error) {
	if err := ctx.Err(); err != nil {
		return ShareGrant{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	grant, ok := r.grants[grantID]
	if !ok {
		return ShareGrant{}, ErrNotFound
	}
	return grant, nil
}

// GetByToken resolves a grant by its token.
func (r *MemoryRepo) GetByToken(ctx context.Context, token string) (ShareGrant, error) {
	if err := ctx.Err(); err != nil {
		return ShareGrant{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	grantID, ok := r.byToken[token]
	if !ok {
		return ShareGrant{}, ErrNotFound
	}
	grant, ok := r.grants[grantID]
	if !ok {
		return ShareGrant{}, ErrNotFound
	}
	return grant, nil
}

// ListByOwner returns the owner's grants in insertion-independent but
// deterministic order (creation time).
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]ShareGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ShareGrant
	for _, grant := range r.grants {
		if grant.OwnerID == ownerID {
			out = append(out, grant)
		}
	}
	sortGrants(out)
	return out, nil
}

// Consume flips consumed from false to true; the boolean reports whether
// this caller won the race.
func (r *MemoryRepo) Consume(ctx context.Context, grantID string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	grant, ok := r.grants[grantID]
	if !ok {
		return false, ErrNotFound
	}
	if grant.Consumed {
		return false, nil
	}
	grant.Consumed = true
	grant.ConsumedAt = &at
	r.grants[grantID] = grant
	return true, nil
}

// Delete removes a grant.
func (r *MemoryRepo) Delete(ctx context.Context, grantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	grant, ok := r.grants[grantID]
	if !ok {
		return ErrNotFound
	}
	delete(r.byToken, grant.Token)
	delete(r.grants, grantID)
	return nil
}

// DeleteByDocument removes all grants issued against a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, docID, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, grant := range r.grants {
		if grant.DocumentID == docID && grant.OwnerID == ownerID {
			delete(r.byToken, grant.Token)
			delete(r.grants, id)
			removed++
		}
	}
	return removed, nil
}

func sortGrants(grants []ShareGrant) {
	sort.Slice(grants, func(i, j int) bool {
		return grants[i].CreatedAt.Before(grants[j].CreatedAt)
	})
}

var _ Repo = (*MemoryRepo)(nil)
