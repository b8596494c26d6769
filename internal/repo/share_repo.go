package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docshare-app/docshare/internal/model"
	"github.com/docshare-app/docshare/internal/pkg/dbutil"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
)

var shareFields = []string{"id", "document_id", "token", "issuer_id", "ctime", "expires_at", "allow_comments", "allow_download"}

// ShareRepo persists share capabilities. The table is keyed uniquely by
// document, so Upsert replaces the whole row in place and a prior token
// dies the moment a new one is written.
type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

func (r *ShareRepo) Upsert(ctx context.Context, cap *model.ShareCapability) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO share_capabilities (id, document_id, token, issuer_id, ctime, expires_at, allow_comments, allow_download)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (document_id) DO UPDATE SET
			id = EXCLUDED.id,
			token = EXCLUDED.token,
			issuer_id = EXCLUDED.issuer_id,
			ctime = EXCLUDED.ctime,
			expires_at = EXCLUDED.expires_at,
			allow_comments = EXCLUDED.allow_comments,
			allow_download = EXCLUDED.allow_download`,
		cap.ID, cap.DocumentID, cap.Token, cap.IssuerID, cap.Ctime, cap.ExpiresAt, cap.AllowComments, cap.AllowDownload)
	if err != nil {
		if dbutil.IsConflict(err) {
			// token column collision, caller regenerates
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ShareRepo) GetByDocument(ctx context.Context, docID string) (*model.ShareCapability, error) {
	return r.getOne(ctx, map[string]interface{}{"document_id": docID})
}

// FindValid returns the capability for token, or not-found when no such
// token exists or it has expired. Expired rows stay in place as inert
// history; they are never purged.
func (r *ShareRepo) FindValid(ctx context.Context, tok string, now int64) (*model.ShareCapability, error) {
	cap, err := r.getOne(ctx, map[string]interface{}{"token": tok})
	if err != nil {
		return nil, err
	}
	if !cap.Live(now) {
		return nil, appErr.ErrNotFound
	}
	return cap, nil
}

func (r *ShareRepo) UpdatePermissions(ctx context.Context, docID string, allowComments, allowDownload bool) error {
	where := map[string]interface{}{"document_id": docID}
	update := map[string]interface{}{"allow_comments": allowComments, "allow_download": allowDownload}
	sqlStr, args, err := builder.BuildUpdate("share_capabilities", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

type SharedDocument struct {
	DocumentID string
	Filename   string
	Token      string
	ExpiresAt  int64
}

// ListByIssuer returns the caller's live share links joined with their
// documents, newest first.
func (r *ShareRepo) ListByIssuer(ctx context.Context, issuerID string, now int64) ([]SharedDocument, error) {
	sqlStr := `
		SELECT d.id, d.filename, s.token, s.expires_at
		FROM share_capabilities s
		JOIN documents d ON d.id = s.document_id
		WHERE s.issuer_id = ? AND (s.expires_at = 0 OR s.expires_at > ?)
		ORDER BY s.ctime DESC
	`
	args := []interface{}{issuerID, now}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]SharedDocument, 0)
	for rows.Next() {
		var item SharedDocument
		if err := rows.Scan(&item.DocumentID, &item.Filename, &item.Token, &item.ExpiresAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ShareRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.ShareCapability, error) {
	sqlStr, args, err := builder.BuildSelect("share_capabilities", where, shareFields)
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
	var cap model.ShareCapability
	if err := rows.Scan(&cap.ID, &cap.DocumentID, &cap.Token, &cap.IssuerID, &cap.Ctime, &cap.ExpiresAt, &cap.AllowComments, &cap.AllowDownload); err != nil {
		return nil, err
	}
	return &cap, nil
}
