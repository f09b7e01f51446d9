package identity

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo and ChallengeRepo.
type MemoryRepo struct {
	mu         sync.Mutex
	users      map[string]User
	byEmail    map[string]string
	byPhone    map[string]string
	challenges map[string]Challenge
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[string]User),
		byEmail:    make(map[string]string),
		byPhone:    make(map[string]string),
		challenges: make(map[string]Challenge),
	}
}

// Create stores a user; email and phone must be unique.
func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return ErrExists
	}
	if user.Phone != "" {
		if _, ok := r.byPhone[user.Phone]; ok {
			return ErrExists
		}
	}
	r.users[user.ID] = user
	r.byEmail[email] = user.ID
	if user.Phone != "" {
		r.byPhone[user.Phone] = user.ID
	}
	return nil
}

// GetByID returns a user by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[userID], nil
}

// GetByPhone returns a user by phone number.
func (r *MemoryRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.byPhone[phone]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[userID], nil
}

// Update replaces a stored user and refreshes the lookup indexes.
func (r *MemoryRepo) Update(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if user.Phone != "" && user.Phone != old.Phone {
		if otherID, taken := r.byPhone[user.Phone]; taken && otherID != user.ID {
			return ErrExists
		}
	}
	delete(r.byEmail, strings.ToLower(old.Email))
	if old.Phone != "" {
		delete(r.byPhone, old.Phone)
	}
	r.users[user.ID] = user
	r.byEmail[strings.ToLower(user.Email)] = user.ID
	if user.Phone != "" {
		r.byPhone[user.Phone] = user.ID
	}
	return nil
}

// CreateChallenge stores a phone challenge.
func (r *MemoryRepo) CreateChallenge(ctx context.Context, ch Challenge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[ch.ID] = ch
	return nil
}

// GetChallengeByID returns a challenge by ID.
func (r *MemoryRepo) GetChallengeByID(ctx context.Context, challengeID string) (Challenge, error) {
	if err := ctx.Err(); err != nil {
		return Challenge{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.challenges[challengeID]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return ch, nil
}

// MarkChallengeUsed flips used from false to true; the boolean reports
// whether this caller won the race.
func (r *MemoryRepo) MarkChallengeUsed(ctx context.Context, challengeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.challenges[challengeID]
	if !ok {
		return false, ErrNotFound
	}
	if ch.Used {
		return false, nil
	}
	ch.Used = true
	r.challenges[challengeID] = ch
	return true, nil
}

// Challenges adapts the MemoryRepo to the ChallengeRepo interface.
func (r *MemoryRepo) Challenges() ChallengeRepo {
	return memoryChallengeRepo{r}
}

type memoryChallengeRepo struct {
	repo *MemoryRepo
}

func (c memoryChallengeRepo) Create(ctx context.Context, ch Challenge) error {
	return c.repo.CreateChallenge(ctx, ch)
}

func (c memoryChallengeRepo) GetByID(ctx context.Context, challengeID string) (Challenge, error) {
	return c.repo.GetChallengeByID(ctx, challengeID)
}

func (c memoryChallengeRepo) MarkUsed(ctx context.Context, challengeID string) (bool, error) {
	return c.repo.MarkChallengeUsed(ctx, challengeID)
}

var (
	_ Repo          = (*MemoryRepo)(nil)
	_ ChallengeRepo = memoryChallengeRepo{}
)
