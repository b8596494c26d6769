package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/docshare-app/docshare/internal/model"
	"github.com/docshare-app/docshare/internal/pkg/dbutil"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
)

var resetTokenFields = []string{"id", "user_id", "token", "ctime", "expires_at", "used"}

// ResetTokenRepo persists password reset tokens. Unlike shares these are
// keyed by token, so a user may hold several pending tokens at once.
type ResetTokenRepo struct {
	db *sql.DB
}

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo {
	return &ResetTokenRepo{db: db}
}

func (r *ResetTokenRepo) Create(ctx context.Context, t *model.PasswordResetToken) error {
	data := map[string]interface{}{
		"id":         t.ID,
		"user_id":    t.UserID,
		"token":      t.Token,
		"ctime":      t.Ctime,
		"expires_at": t.ExpiresAt,
		"used":       t.Used,
	}
	sqlStr, args, err := builder.BuildInsert("password_reset_tokens", []map[string]interface{}{data})
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

// FindValid returns the token record unless it has expired or was already
// consumed. Used trumps TTL: a consumed token is gone for good.
func (r *ResetTokenRepo) FindValid(ctx context.Context, tok string, now int64) (*model.PasswordResetToken, error) {
	where := map[string]interface{}{"token": tok}
	sqlStr, args, err := builder.BuildSelect("password_reset_tokens", where, resetTokenFields)
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
	var t model.PasswordResetToken
	if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Ctime, &t.ExpiresAt, &t.Used); err != nil {
		return nil, err
	}
	if t.Used != 0 || t.ExpiresAt <= now {
		return nil, appErr.ErrNotFound
	}
	return &t, nil
}

// MarkUsed is idempotent; marking an already-used token changes nothing.
func (r *ResetTokenRepo) MarkUsed(ctx context.Context, tok string) error {
	where := map[string]interface{}{"token": tok}
	update := map[string]interface{}{"used": 1}
	sqlStr, args, err := builder.BuildUpdate("password_reset_tokens", where, update)
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

// Consume validates the token under a row lock, rewrites the user's
// password hash and marks the token used, all in one transaction. A
// concurrent consumer of the same token loses: used is checked after the
// lock is held.
func (r *ResetTokenRepo) Consume(ctx context.Context, tok string, now int64, newHash string) (string, error) {
	var userID string
	err := dbutil.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var t model.PasswordResetToken
		row := tx.QueryRowContext(ctx, `
			SELECT id, user_id, token, ctime, expires_at, used
			FROM password_reset_tokens WHERE token = $1 FOR UPDATE`, tok)
		if err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.Ctime, &t.ExpiresAt, &t.Used); err != nil {
			if err == sql.ErrNoRows {
				return appErr.ErrNotFound
			}
			return err
		}
		if t.Used != 0 || t.ExpiresAt <= now {
			return appErr.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = $1, mtime = $2 WHERE id = $3`, newHash, now, t.UserID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE password_reset_tokens SET used = 1 WHERE token = $1`, tok); err != nil {
			return err
		}
		userID = t.UserID
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

// DeleteStale removes used or long-expired tokens; the cleanup job calls
// this on a schedule.
func (r *ResetTokenRepo) DeleteStale(ctx context.Context, before int64) (int64, error) {
	sqlStr := `DELETE FROM password_reset_tokens WHERE used = 1 OR expires_at < ?`
	args := []interface{}{before}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
