package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo and ChallengeRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, name, phone, password_hash, created_at, updated_at`

// Create inserts a new user. Unique violations on email or phone map to
// ErrExists.
func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, name, phone, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		user.ID,
		strings.ToLower(user.Email),
		nullable(user.Name),
		nullable(user.Phone),
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrExists
	}
	return err
}

// GetByID fetches a user by ID.
func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.getUser(ctx, query, userID)
}

// GetByEmail fetches a user by email.
func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	return r.getUser(ctx, query, strings.ToLower(email))
}

// GetByPhone fetches a user by phone number.
func (r *PGRepo) GetByPhone(ctx context.Context, phone string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE phone = $1 LIMIT 1`
	return r.getUser(ctx, query, phone)
}

func (r *PGRepo) getUser(ctx context.Context, query string, arg any) (User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// Update replaces the mutable user fields.
func (r *PGRepo) Update(ctx context.Context, user User) error {
	const query = `
UPDATE users
SET name = $1, phone = $2, password_hash = $3, updated_at = $4
WHERE id = $5`

	res, err := r.DB.ExecContext(ctx, query, nullable(user.Name), nullable(user.Phone), user.PasswordHash, user.UpdatedAt, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrExists
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// PGChallengeRepo implements ChallengeRepo using Postgres.
type PGChallengeRepo struct {
	DB *sql.DB
}

// Create inserts a phone challenge.
func (r *PGChallengeRepo) Create(ctx context.Context, ch Challenge) error {
	const query = `
INSERT INTO phone_challenges (id, phone, purpose, user_id, code_hash, used, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		ch.ID,
		ch.Phone,
		string(ch.Purpose),
		nullable(ch.UserID),
		ch.CodeHash,
		ch.Used,
		ch.ExpiresAt,
		ch.CreatedAt,
	)
	return err
}

// GetByID fetches a challenge by ID.
func (r *PGChallengeRepo) GetByID(ctx context.Context, challengeID string) (Challenge, error) {
	const query = `
SELECT id, phone, purpose, user_id, code_hash, used, expires_at, created_at
FROM phone_challenges
WHERE id = $1
LIMIT 1`

	var ch Challenge
	var purpose string
	var userID sql.NullString
	err := r.DB.QueryRowContext(ctx, query, challengeID).Scan(
		&ch.ID,
		&ch.Phone,
		&purpose,
		&userID,
		&ch.CodeHash,
		&ch.Used,
		&ch.ExpiresAt,
		&ch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Challenge{}, ErrNotFound
		}
		return Challenge{}, err
	}
	ch.Purpose = Purpose(purpose)
	if userID.Valid {
		ch.UserID = userID.String
	}
	return ch, nil
}

// MarkUsed flips used from false to true; the WHERE clause is the
// compare-and-set that keeps a challenge single-use under concurrency.
func (r *PGChallengeRepo) MarkUsed(ctx context.Context, challengeID string) (bool, error) {
	const query = `
UPDATE phone_challenges
SET used = TRUE
WHERE id = $1 AND used = FALSE`

	res, err := r.DB.ExecContext(ctx, query, challengeID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	var name, phone sql.NullString
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&name,
		&phone,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	if name.Valid {
		user.Name = name.String
	}
	if phone.Valid {
		user.Phone = phone.String
	}
	return user, nil
}

var (
	_ Repo          = (*PGRepo)(nil)
	_ ChallengeRepo = (*PGChallengeRepo)(nil)
)
