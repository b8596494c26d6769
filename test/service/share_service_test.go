package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/timeutil"
	"github.com/docshare-app/docshare/internal/pkg/token"
	"github.com/docshare-app/docshare/internal/repo"
	"github.com/docshare-app/docshare/internal/service"
	"github.com/docshare-app/docshare/test/testutil"
)

type recordingSender struct {
	sent []string
}

func (s *recordingSender) Send(to, subject, body string) error {
	s.sent = append(s.sent, to)
	return nil
}

func newShareService(db *sql.DB, sender service.EmailSender) (*service.ShareService, *repo.ShareRepo, *repo.DocumentRepo, *repo.UserRepo) {
	docRepo := repo.NewDocumentRepo(db)
	shareRepo := repo.NewShareRepo(db)
	userRepo := repo.NewUserRepo(db)
	mailer := service.NewAsyncMailer(sender, 8)
	return service.NewShareService(docRepo, shareRepo, userRepo, mailer, "https://docshare.example.com"), shareRepo, docRepo, userRepo
}

func seedDocument(t *testing.T, docs *repo.DocumentRepo, ownerID string) *model.Document {
	t.Helper()
	doc := &model.Document{
		ID:         token.New(),
		OwnerID:    ownerID,
		Filename:   "report.pdf",
		StorageKey: token.New(),
		Ctime:      timeutil.NowUnix(),
	}
	require.NoError(t, docs.Create(context.Background(), doc))
	return doc
}

func TestShareServiceCreateIsIdempotent(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares, _, docRepo, _ := newShareService(db, &recordingSender{})
	ownerID := token.New()
	doc := seedDocument(t, docRepo, ownerID)

	first, err := shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)
	require.True(t, first.AllowComments)
	require.False(t, first.AllowDownload)
	require.Greater(t, first.ExpiresAt, timeutil.NowUnix())

	// asking again returns the same live link untouched
	second, err := shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, first.Token, second.Token)

	// someone else's document reads as not-found
	_, err = shares.CreateOrGetShare(context.Background(), token.New(), doc.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestShareServiceReplacesExpiredShareWithDefaults(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares, shareRepo, docRepo, _ := newShareService(db, &recordingSender{})
	ownerID := token.New()
	doc := seedDocument(t, docRepo, ownerID)

	// an old link with download enabled, long past its window
	now := timeutil.NowUnix()
	expired := &model.ShareCapability{
		ID:            token.New(),
		DocumentID:    doc.ID,
		Token:         token.New(),
		IssuerID:      ownerID,
		Ctime:         now - 14*24*3600,
		ExpiresAt:     now - 7*24*3600,
		AllowComments: false,
		AllowDownload: true,
	}
	require.NoError(t, shareRepo.Upsert(context.Background(), expired))

	fresh, err := shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)
	require.NotEqual(t, expired.Token, fresh.Token)
	require.True(t, fresh.AllowComments)
	require.False(t, fresh.AllowDownload)

	// the stored row matches what the caller was told: the expired
	// link's flags must not leak into the replacement
	stored, err := shareRepo.GetByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, fresh.ID, stored.ID)
	require.Equal(t, fresh.Token, stored.Token)
	require.True(t, stored.AllowComments)
	require.False(t, stored.AllowDownload)
}

func TestShareServiceRefreshInvalidatesOldToken(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares, shareRepo, docRepo, _ := newShareService(db, &recordingSender{})
	ownerID := token.New()
	doc := seedDocument(t, docRepo, ownerID)

	first, err := shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)

	_, err = shares.UpdatePermissions(context.Background(), ownerID, doc.ID, false, true)
	require.NoError(t, err)

	refreshed, err := shares.RefreshShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, refreshed.Token)
	// flag changes survive the refresh
	require.False(t, refreshed.AllowComments)
	require.True(t, refreshed.AllowDownload)

	now := timeutil.NowUnix()
	_, err = shareRepo.FindValid(context.Background(), first.Token, now)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = shareRepo.FindValid(context.Background(), refreshed.Token, now)
	require.NoError(t, err)
}

func TestShareServiceSendByEmail(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	sender := &recordingSender{}
	shares, _, docRepo, userRepo := newShareService(db, sender)

	ownerID := token.New()
	now := timeutil.NowUnix()
	require.NoError(t, userRepo.Create(context.Background(), &model.User{
		ID: ownerID, Email: token.New() + "@example.com", Name: "Owner", PasswordHash: "x", Ctime: now, Mtime: now,
	}))
	doc := seedDocument(t, docRepo, ownerID)

	// no live link yet
	err := shares.SendByEmail(context.Background(), ownerID, doc.ID, "friend@example.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = shares.CreateOrGetShare(context.Background(), ownerID, doc.ID)
	require.NoError(t, err)

	require.NoError(t, shares.SendByEmail(context.Background(), ownerID, doc.ID, "friend@example.com"))
	err = shares.SendByEmail(context.Background(), ownerID, doc.ID, "  ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestShareServiceListShared(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	shares, _, docRepo, _ := newShareService(db, &recordingSender{})
	ownerID := token.New()
	docA := seedDocument(t, docRepo, ownerID)
	docB := seedDocument(t, docRepo, ownerID)

	_, err := shares.CreateOrGetShare(context.Background(), ownerID, docA.ID)
	require.NoError(t, err)
	_, err = shares.CreateOrGetShare(context.Background(), ownerID, docB.ID)
	require.NoError(t, err)

	listed, err := shares.ListShared(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, item := range listed {
		require.NotEmpty(t, item.Token)
		require.Equal(t, "report.pdf", item.Filename)
	}
}
