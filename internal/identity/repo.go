package identity

import "context"

// Repo defines persistence operations for users.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	Update(ctx context.Context, user User) error
}

// ChallengeRepo defines persistence operations for phone challenges.
//
// MarkUsed flips used from false to true and reports whether this caller
// won; a challenge is redeemed at most once no matter how many verifications
// race on it.
type ChallengeRepo interface {
	Create(ctx context.Context, ch Challenge) error
	GetByID(ctx context.Context, challengeID string) (Challenge, error)
	MarkUsed(ctx context.Context, challengeID string) (bool, error)
}
