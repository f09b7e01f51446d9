package grants

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new grant. The share_grants_token_key unique index maps
// to ErrTokenExists so the service can retry with a fresh token.
func (r *PGRepo) Create(ctx context.Context, grant ShareGrant) error {
	const query = `
INSERT INTO share_grants (id, document_id, owner_id, recipient_email, permission, token, one_time, file_url, doc_type, hint, consumed, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var hint sql.NullString
	if grant.Hint != "" {
		hint = sql.NullString{String: grant.Hint, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		grant.ID,
		grant.DocumentID,
		grant.OwnerID,
		grant.RecipientEmail,
		string(grant.Permission),
		grant.Token,
		grant.OneTime,
		grant.FileURL,
		grant.DocType,
		hint,
		grant.Consumed,
		grant.CreatedAt,
		grant.ExpiresAt,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrTokenExists
	}
	return err
}

// GetByID fetches a grant by ID.
func (r *PGRepo) GetByID(ctx context.Context, grantID string) (ShareGrant, error) {
	const query = `
SELECT id, document_id, owner_id, recipient_email, permission, token, one_time, file_url, doc_type, hint, consumed, consumed_at, created_at, expires_at
FROM share_grants
WHERE id = $1
LIMIT 1`
	grant, err := scanGrant(r.DB.QueryRowContext(ctx, query, grantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ShareGrant{}, ErrNotFound
		}
		return ShareGrant{}, err
	}
	return grant, nil
}

// GetByToken resolves a grant by its token.
func (r *PGRepo) GetByToken(ctx context.Context, token string) (ShareGrant, error) {
	const query = `
SELECT id, document_id, owner_id, recipient_email, permission, token, one_time, file_url, doc_type, hint, consumed, consumed_at, created_at, expires_at
FROM share_grants
WHERE token = $1
LIMIT 1`
	grant, err := scanGrant(r.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ShareGrant{}, ErrNotFound
		}
		return ShareGrant{}, err
	}
	return grant, nil
}

// ListByOwner returns the owner's grants oldest-first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]ShareGrant, error) {
	const query = `
SELECT id, document_id, owner_id, recipient_email, permission, token, one_time, file_url, doc_type, hint, consumed, consumed_at, created_at, expires_at
FROM share_grants
WHERE owner_id = $1
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShareGrant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, grant)
	}
	return out, rows.Err()
}

// Consume flips consumed from false to true. The WHERE clause is the
// compare-and-set: exactly one of any number of concurrent callers sees an
// affected row.
func (r *PGRepo) Consume(ctx context.Context, grantID string, at time.Time) (bool, error) {
	const query = `
UPDATE share_grants
SET consumed = TRUE, consumed_at = $2
WHERE id = $1 AND consumed = FALSE`

	res, err := r.DB.ExecContext(ctx, query, grantID, at)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Delete removes a grant; deleting an unknown id reports ErrNotFound.
func (r *PGRepo) Delete(ctx context.Context, grantID string) error {
	const query = `DELETE FROM share_grants WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, grantID)
	if err != nil {
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

// DeleteByDocument removes all grants issued against a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, docID, ownerID string) (int, error) {
	const query = `DELETE FROM share_grants WHERE document_id = $1 AND owner_id = $2`
	res, err := r.DB.ExecContext(ctx, query, docID, ownerID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func isUniqueViolation(err error) bool {
	// pgx surfaces Postgres error 23505 in the message; matching on the
	// SQLSTATE keeps this driver-agnostic for tests.
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (ShareGrant, error) {
	var grant ShareGrant
	var permission string
	var hint sql.NullString
	var consumedAt sql.NullTime
	if err := row.Scan(
		&grant.ID,
		&grant.DocumentID,
		&grant.OwnerID,
		&grant.RecipientEmail,
		&permission,
		&grant.Token,
		&grant.OneTime,
		&grant.FileURL,
		&grant.DocType,
		&hint,
		&grant.Consumed,
		&consumedAt,
		&grant.CreatedAt,
		&grant.ExpiresAt,
	); err != nil {
		return ShareGrant{}, err
	}
	grant.Permission = Permission(permission)
	if hint.Valid {
		grant.Hint = hint.String
	}
	if consumedAt.Valid {
		at := consumedAt.Time
		grant.ConsumedAt = &at
	}
	return grant, nil
}

var _ Repo = (*PGRepo)(nil)
