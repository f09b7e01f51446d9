package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, owner_id, owner_email, doc_type, hint, file_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var hint sql.NullString
	if doc.Hint != "" {
		hint = sql.NullString{String: doc.Hint, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.OwnerEmail,
		string(doc.DocType),
		hint,
		doc.FileURL,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID for an owner.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, docID string) (Document, error) {
	const query = `
SELECT id, owner_id, owner_email, doc_type, hint, file_url, created_at
FROM documents
WHERE owner_id = $1 AND id = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, ownerID, docID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByOwner lists documents ordered oldest-first so the listing stays
// stable within a session.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Document, error) {
	const query = `
SELECT id, owner_id, owner_email, doc_type, hint, file_url, created_at
FROM documents
WHERE owner_id = $1
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Update replaces hint and file_url for the matching id and owner.
func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	const query = `
UPDATE documents
SET hint = $1, file_url = $2
WHERE owner_id = $3 AND id = $4`

	var hint sql.NullString
	if doc.Hint != "" {
		hint = sql.NullString{String: doc.Hint, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, hint, doc.FileURL, doc.OwnerID, doc.ID)
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

// Delete removes a document; deleting an unknown id reports ErrNotFound.
func (r *PGRepo) Delete(ctx context.Context, ownerID, docID string) error {
	const query = `DELETE FROM documents WHERE owner_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, ownerID, docID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var docType string
	var hint sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.OwnerEmail,
		&docType,
		&hint,
		&doc.FileURL,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.DocType = DocType(docType)
	if hint.Valid {
		doc.Hint = hint.String
	}
	return doc, nil
}

var _ Repo = (*PGRepo)(nil)
