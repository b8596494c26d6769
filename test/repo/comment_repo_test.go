package repo_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/token"
	"github.com/docshare-app/docshare/internal/repo"
	"github.com/docshare-app/docshare/test/testutil"
)

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func TestCommentRepoInsertAndList(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	comments := repo.NewCommentRepo(db)
	docID := token.New()

	root, err := comments.Insert(context.Background(), &model.Comment{
		ID:           token.New(),
		DocumentID:   docID,
		AuthorUserID: nullStr("user-1"),
		Content:      "first",
	})
	require.NoError(t, err)
	require.NotZero(t, root.Ctime)

	reply, err := comments.Insert(context.Background(), &model.Comment{
		ID:         token.New(),
		DocumentID: docID,
		GuestName:  nullStr("Alice"),
		Content:    "second",
		ParentID:   nullStr(root.ID),
	})
	require.NoError(t, err)
	require.Equal(t, root.ID, reply.Parent())

	list, err := comments.ListByDocument(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, root.ID, list[0].ID)
	require.Equal(t, reply.ID, list[1].ID)
	require.True(t, list[0].Authored())
	require.False(t, list[1].Authored())
	require.Equal(t, "Alice", list[1].GuestName.String)
}

func TestCommentRepoAuthorGuestExclusive(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	comments := repo.NewCommentRepo(db)
	docID := token.New()

	_, err := comments.Insert(context.Background(), &model.Comment{
		ID:         token.New(),
		DocumentID: docID,
		Content:    "no author at all",
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = comments.Insert(context.Background(), &model.Comment{
		ID:           token.New(),
		DocumentID:   docID,
		AuthorUserID: nullStr("user-1"),
		GuestName:    nullStr("Alice"),
		Content:      "both at once",
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestCommentRepoParentValidation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	comments := repo.NewCommentRepo(db)
	docA := token.New()
	docB := token.New()

	parent, err := comments.Insert(context.Background(), &model.Comment{
		ID:           token.New(),
		DocumentID:   docA,
		AuthorUserID: nullStr("user-1"),
		Content:      "root on A",
	})
	require.NoError(t, err)

	// parent on a different document is rejected
	_, err = comments.Insert(context.Background(), &model.Comment{
		ID:         token.New(),
		DocumentID: docB,
		GuestName:  nullStr("Bob"),
		Content:    "cross-document reply",
		ParentID:   nullStr(parent.ID),
	})
	require.ErrorIs(t, err, appErr.ErrInvalidParent)

	// unknown parent is rejected the same way
	_, err = comments.Insert(context.Background(), &model.Comment{
		ID:         token.New(),
		DocumentID: docA,
		GuestName:  nullStr("Bob"),
		Content:    "reply to nothing",
		ParentID:   nullStr(token.New()),
	})
	require.ErrorIs(t, err, appErr.ErrInvalidParent)
}

func TestCommentRepoDeleteAuthorScoped(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	comments := repo.NewCommentRepo(db)
	docID := token.New()

	mine, err := comments.Insert(context.Background(), &model.Comment{
		ID:           token.New(),
		DocumentID:   docID,
		AuthorUserID: nullStr("user-1"),
		Content:      "mine",
	})
	require.NoError(t, err)

	guest, err := comments.Insert(context.Background(), &model.Comment{
		ID:         token.New(),
		DocumentID: docID,
		GuestName:  nullStr("Alice"),
		Content:    "guest",
	})
	require.NoError(t, err)

	// someone else cannot delete my comment
	err = comments.Delete(context.Background(), mine.ID, "user-2")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	// guest comments have no author and stay forever
	err = comments.Delete(context.Background(), guest.ID, "user-1")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	require.NoError(t, comments.Delete(context.Background(), mine.ID, "user-1"))

	list, err := comments.ListByDocument(context.Background(), docID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, guest.ID, list[0].ID)
}
