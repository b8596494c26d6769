package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docshare-app/docshare/internal/model"
	"github.com/docshare-app/docshare/internal/pkg/dbutil"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
)

var documentFields = []string{"id", "owner_id", "filename", "storage_key", "ctime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"owner_id":    doc.OwnerID,
		"filename":    doc.Filename,
		"storage_key": doc.StorageKey,
		"ctime":       doc.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// GetByOwner is owner-scoped: a document owned by someone else reads as
// not found, which keeps ownership checks free of existence leaks.
func (r *DocumentRepo) GetByOwner(ctx context.Context, ownerID, docID string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{"id": docID, "owner_id": ownerID})
}

// GetByID is unscoped; only the policy engine path uses it, after which
// the resolved permission set decides what the caller may learn.
func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	return r.getOne(ctx, map[string]interface{}{"id": docID})
}

func (r *DocumentRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	where := map[string]interface{}{"owner_id": ownerID, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.StorageKey, &doc.Ctime); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteCascade removes a document together with its share capability and
// comments in one transaction. The blob is the caller's problem; the
// returned storage key tells it what to remove.
func (r *DocumentRepo) DeleteCascade(ctx context.Context, ownerID, docID string) (string, error) {
	var storageKey string
	err := dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT storage_key FROM documents WHERE id = $1 AND owner_id = $2`, docID, ownerID)
		if err := row.Scan(&storageKey); err != nil {
			if err == sql.ErrNoRows {
				return appErr.ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE document_id = $1`, docID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM share_capabilities WHERE document_id = $1`, docID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, docID)
		return err
	})
	if err != nil {
		return "", err
	}
	return storageKey, nil
}

func (r *DocumentRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.StorageKey, &doc.Ctime); err != nil {
		return nil, err
	}
	return &doc, nil
}
