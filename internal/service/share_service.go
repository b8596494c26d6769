package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/timeutil"
	"github.com/docshare-app/docshare/internal/pkg/token"
	"github.com/docshare-app/docshare/internal/repo"
)

const (
	// new share links live for a week; refresh restarts the window
	shareTTLSeconds = 7 * 24 * 3600

	// token column collisions are effectively impossible, but the unique
	// constraint still gets a retry budget
	tokenRetries = 3
)

// ShareService manages the one live share capability of each document.
// Every operation starts with an owner-scoped document lookup, so callers
// who do not own the document see plain not-found whether or not it
// exists.
type ShareService struct {
	docs      *repo.DocumentRepo
	shares    *repo.ShareRepo
	users     *repo.UserRepo
	mailer    *AsyncMailer
	publicURL string
}

func NewShareService(docs *repo.DocumentRepo, shares *repo.ShareRepo, users *repo.UserRepo, mailer *AsyncMailer, publicURL string) *ShareService {
	return &ShareService{docs: docs, shares: shares, users: users, mailer: mailer, publicURL: publicURL}
}

// CreateOrGetShare is idempotent: an untouched live capability is returned
// as-is; only a missing or expired one gets replaced. New capabilities
// default to comments on, download off.
func (s *ShareService) CreateOrGetShare(ctx context.Context, ownerID, docID string) (*model.ShareCapability, error) {
	if _, err := s.docs.GetByOwner(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	existing, err := s.shares.GetByDocument(ctx, docID)
	if err == nil && existing.Live(now) {
		return existing, nil
	}
	if err != nil && !appErr.IsNotFound(err) {
		return nil, err
	}
	cap := &model.ShareCapability{
		ID:            newID(),
		DocumentID:    docID,
		IssuerID:      ownerID,
		Ctime:         now,
		ExpiresAt:     now + shareTTLSeconds,
		AllowComments: true,
		AllowDownload: false,
	}
	if err := s.upsertWithFreshToken(ctx, cap); err != nil {
		return nil, err
	}
	return cap, nil
}

// RefreshShare overwrites the capability with a new token and a fresh
// 7-day window. The prior token stops working the instant the row is
// rewritten; permission flags survive the refresh.
func (s *ShareService) RefreshShare(ctx context.Context, ownerID, docID string) (*model.ShareCapability, error) {
	if _, err := s.docs.GetByOwner(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	cap := &model.ShareCapability{
		ID:            newID(),
		DocumentID:    docID,
		IssuerID:      ownerID,
		Ctime:         now,
		ExpiresAt:     now + shareTTLSeconds,
		AllowComments: true,
		AllowDownload: false,
	}
	if existing, err := s.shares.GetByDocument(ctx, docID); err == nil {
		cap.AllowComments = existing.AllowComments
		cap.AllowDownload = existing.AllowDownload
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}
	if err := s.upsertWithFreshToken(ctx, cap); err != nil {
		return nil, err
	}
	return cap, nil
}

// UpdatePermissions mutates the flags of the live capability; without one
// there is nothing to update.
func (s *ShareService) UpdatePermissions(ctx context.Context, ownerID, docID string, allowComments, allowDownload bool) (*model.ShareCapability, error) {
	if _, err := s.docs.GetByOwner(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	existing, err := s.shares.GetByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !existing.Live(timeutil.NowUnix()) {
		return nil, appErr.ErrNotFound
	}
	if err := s.shares.UpdatePermissions(ctx, docID, allowComments, allowDownload); err != nil {
		return nil, err
	}
	return s.shares.GetByDocument(ctx, docID)
}

// GetShare returns the live capability, or not-found when none exists.
func (s *ShareService) GetShare(ctx context.Context, ownerID, docID string) (*model.ShareCapability, error) {
	if _, err := s.docs.GetByOwner(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	cap, err := s.shares.GetByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !cap.Live(timeutil.NowUnix()) {
		return nil, appErr.ErrNotFound
	}
	return cap, nil
}

// SendByEmail mails the live share link to recipient. Dispatch is async:
// the token is already persisted and a delivery failure never rolls it
// back, it only shows up in the logs.
func (s *ShareService) SendByEmail(ctx context.Context, ownerID, docID, recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return appErr.ErrInvalid
	}
	doc, err := s.docs.GetByOwner(ctx, ownerID, docID)
	if err != nil {
		return err
	}
	cap, err := s.shares.GetByDocument(ctx, docID)
	if err != nil {
		return err
	}
	if !cap.Live(timeutil.NowUnix()) {
		return appErr.ErrNotFound
	}
	sender, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Shared document: %s", doc.Filename)
	body := fmt.Sprintf(`Hello,

%s has shared a document with you:

File: %s
View link: %s

You can access this document without logging in. The link expires in 7 days.
`, sender.Name, doc.Filename, s.ShareURL(cap.Token))
	s.mailer.Enqueue(recipient, subject, body)
	return nil
}

// ListShared returns the caller's live share links with their documents.
func (s *ShareService) ListShared(ctx context.Context, userID string) ([]repo.SharedDocument, error) {
	return s.shares.ListByIssuer(ctx, userID, timeutil.NowUnix())
}

func (s *ShareService) ShareURL(tok string) string {
	return strings.TrimSuffix(s.publicURL, "/") + "/shared/" + tok
}

func (s *ShareService) upsertWithFreshToken(ctx context.Context, cap *model.ShareCapability) error {
	var err error
	for i := 0; i < tokenRetries; i++ {
		cap.Token = token.New()
		err = s.shares.Upsert(ctx, cap)
		if !appErr.IsConflict(err) {
			return err
		}
	}
	return err
}
