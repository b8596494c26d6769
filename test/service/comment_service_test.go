package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/timeutil"
	"github.com/docshare-app/docshare/internal/pkg/token"
	"github.com/docshare-app/docshare/internal/repo"
	"github.com/docshare-app/docshare/internal/service"
	"github.com/docshare-app/docshare/test/testutil"
)

func TestCommentServiceGuestFlow(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docRepo := repo.NewDocumentRepo(db)
	shareRepo := repo.NewShareRepo(db)
	userRepo := repo.NewUserRepo(db)
	commentRepo := repo.NewCommentRepo(db)
	engine := access.NewEngine(shareRepo)
	shares := service.NewShareService(docRepo, shareRepo, userRepo, service.NewAsyncMailer(&recordingSender{}, 8), "https://docshare.example.com")
	comments := service.NewCommentService(engine, docRepo, commentRepo, userRepo)

	ownerID := token.New()
	now := timeutil.NowUnix()
	require.NoError(t, userRepo.Create(context.Background(), &model.User{
		ID: ownerID, Email: token.New() + "@example.com", Name: "Owner", PasswordHash: "x", Ctime: now, Mtime: now,
	}))
	doc := seedDocument(t, docRepo, ownerID)

	cap, err := shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)

	// the owner posts under their account name
	ownerNode, err := comments.PostComment(context.Background(), doc.ID, access.Authenticated(ownerID), "", "welcome", "")
	require.NoError(t, err)
	require.Equal(t, "Owner", ownerNode.DisplayName)

	// a guest with the link replies under a chosen name
	guestNode, err := comments.PostComment(context.Background(), doc.ID, access.Guest(cap.Token), "Alice", "thanks!", ownerNode.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice", guestNode.DisplayName)
	require.Equal(t, ownerNode.ID, guestNode.ParentID)

	// a nameless guest becomes Anonymous
	anonNode, err := comments.PostComment(context.Background(), doc.ID, access.Guest(cap.Token), "  ", "me too", "")
	require.NoError(t, err)
	require.Equal(t, "Anonymous", anonNode.DisplayName)

	roots, err := comments.ListComments(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, "Owner", roots[0].DisplayName)
	require.Len(t, roots[0].Replies, 1)
	require.Equal(t, "Alice", roots[0].Replies[0].DisplayName)
	require.Equal(t, "Anonymous", roots[1].DisplayName)
}

func TestCommentServiceDeniesWithoutCommentRight(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docRepo := repo.NewDocumentRepo(db)
	shareRepo := repo.NewShareRepo(db)
	userRepo := repo.NewUserRepo(db)
	commentRepo := repo.NewCommentRepo(db)
	engine := access.NewEngine(shareRepo)
	shares := service.NewShareService(docRepo, shareRepo, userRepo, service.NewAsyncMailer(&recordingSender{}, 8), "https://docshare.example.com")
	comments := service.NewCommentService(engine, docRepo, commentRepo, userRepo)

	ownerID := token.New()
	doc := seedDocument(t, docRepo, ownerID)

	// no capability at all: a stranger and a bogus token both bounce
	_, err := comments.PostComment(context.Background(), doc.ID, access.Authenticated(token.New()), "", "hi", "")
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = comments.PostComment(context.Background(), doc.ID, access.Guest(token.New()), "Alice", "hi", "")
	require.ErrorIs(t, err, appErr.ErrForbidden)

	// a link with comments switched off still bounces its guests
	cap, err := shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)
	_, err = shares.UpdatePermissions(context.Background(), ownerID, doc.ID, false, false)
	require.NoError(t, err)
	_, err = comments.PostComment(context.Background(), doc.ID, access.Guest(cap.Token), "Alice", "hi", "")
	require.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestCommentServiceRefreshCutsOffOldToken(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docRepo := repo.NewDocumentRepo(db)
	shareRepo := repo.NewShareRepo(db)
	userRepo := repo.NewUserRepo(db)
	commentRepo := repo.NewCommentRepo(db)
	engine := access.NewEngine(shareRepo)
	shares := service.NewShareService(docRepo, shareRepo, userRepo, service.NewAsyncMailer(&recordingSender{}, 8), "https://docshare.example.com")
	comments := service.NewCommentService(engine, docRepo, commentRepo, userRepo)

	ownerID := token.New()
	doc := seedDocument(t, docRepo, ownerID)

	cap, err := shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)
	_, err = comments.PostComment(context.Background(), doc.ID, access.Guest(cap.Token), "Alice", "before refresh", "")
	require.NoError(t, err)

	refreshed, err := shares.RefreshShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)

	_, err = comments.PostComment(context.Background(), doc.ID, access.Guest(cap.Token), "Alice", "after refresh", "")
	require.ErrorIs(t, err, appErr.ErrForbidden)
	_, err = comments.PostComment(context.Background(), doc.ID, access.Guest(refreshed.Token), "Alice", "new token works", "")
	require.NoError(t, err)
}

func TestCommentServiceDeleteRights(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	docRepo := repo.NewDocumentRepo(db)
	shareRepo := repo.NewShareRepo(db)
	userRepo := repo.NewUserRepo(db)
	commentRepo := repo.NewCommentRepo(db)
	engine := access.NewEngine(shareRepo)
	comments := service.NewCommentService(engine, docRepo, commentRepo, userRepo)

	ownerID := token.New()
	doc := seedDocument(t, docRepo, ownerID)

	node, err := comments.PostComment(context.Background(), doc.ID, access.Authenticated(ownerID), "", "mine", "")
	require.NoError(t, err)

	err = comments.DeleteComment(context.Background(), node.ID, access.Guest("whatever"))
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	err = comments.DeleteComment(context.Background(), node.ID, access.Authenticated(token.New()))
	require.ErrorIs(t, err, appErr.ErrForbidden)

	require.NoError(t, comments.DeleteComment(context.Background(), node.ID, access.Authenticated(ownerID)))
}
