package repo

import (
	"context"
	"database/sql"

	"github.com/docshare-app/docshare/internal/model"
	"github.com/docshare-app/docshare/internal/pkg/dbutil"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
)

// CommentRepo is the append-only comment store. Rows are immutable once
// written; the only mutation is author-scoped deletion.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// Insert writes one comment and returns it with the database-assigned
// ctime. The parent check and the insert share a transaction so a parent
// cannot vanish between them. Exactly one of AuthorUserID/GuestName must
// be set; ParentID, when set, must reference a comment on the same
// document.
func (r *CommentRepo) Insert(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	if c.AuthorUserID.Valid == c.GuestName.Valid {
		return nil, appErr.ErrInvalid
	}
	out := *c
	err := dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if c.ParentID.Valid {
			var parentDoc string
			row := tx.QueryRowContext(ctx, `SELECT document_id FROM comments WHERE id = $1`, c.ParentID.String)
			if err := row.Scan(&parentDoc); err != nil {
				if err == sql.ErrNoRows {
					return appErr.ErrInvalidParent
				}
				return err
			}
			if parentDoc != c.DocumentID {
				return appErr.ErrInvalidParent
			}
		}
		row := tx.QueryRowContext(ctx, `
			INSERT INTO comments (id, document_id, author_user_id, guest_name, content, parent_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING ctime`,
			c.ID, c.DocumentID, c.AuthorUserID, c.GuestName, c.Content, c.ParentID)
		return row.Scan(&out.Ctime)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByDocument returns every comment on the document, oldest first. Ties
// within a second order by id so listings are stable.
func (r *CommentRepo) ListByDocument(ctx context.Context, docID string) ([]model.Comment, error) {
	sqlStr := `
		SELECT id, document_id, author_user_id, guest_name, content, parent_id, ctime
		FROM comments
		WHERE document_id = ?
		ORDER BY ctime ASC, id ASC
	`
	args := []interface{}{docID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.AuthorUserID, &c.GuestName, &c.Content, &c.ParentID, &c.Ctime); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Delete removes the comment only when requesterID authored it. Guest
// comments have no author and can never be deleted through this path.
func (r *CommentRepo) Delete(ctx context.Context, commentID, requesterID string) error {
	sqlStr := `DELETE FROM comments WHERE id = ? AND author_user_id = ?`
	args := []interface{}{commentID, requesterID}
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
		return appErr.ErrForbidden
	}
	return nil
}
