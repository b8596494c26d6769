package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/filestore"
	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/timeutil"
	"github.com/docshare-app/docshare/internal/repo"
)

type DocumentService struct {
	docs   *repo.DocumentRepo
	shares *repo.ShareRepo
	users  *repo.UserRepo
	engine *access.Engine
	store  filestore.Store
}

func NewDocumentService(docs *repo.DocumentRepo, shares *repo.ShareRepo, users *repo.UserRepo, engine *access.Engine, store filestore.Store) *DocumentService {
	return &DocumentService{docs: docs, shares: shares, users: users, engine: engine, store: store}
}

// Upload saves the payload first and only then inserts the row, so a
// failed insert leaves a dangling blob rather than a row without bytes.
func (s *DocumentService) Upload(ctx context.Context, ownerID, filename string, r filestore.ReadSeekCloser, size int64) (*model.Document, error) {
	if filename == "" || size <= 0 {
		return nil, appErr.ErrInvalid
	}
	doc := &model.Document{
		ID:         newID(),
		OwnerID:    ownerID,
		Filename:   filename,
		StorageKey: newID(),
		Ctime:      timeutil.NowUnix(),
	}
	if err := s.store.Save(ctx, doc.StorageKey, r, size); err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, doc.StorageKey); delErr != nil {
			logutil.GetLogger(ctx).Warn("orphan blob after failed insert",
				zap.String("storage_key", doc.StorageKey), zap.Error(delErr))
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, ownerID string) ([]model.Document, error) {
	return s.docs.ListByOwner(ctx, ownerID)
}

func (s *DocumentService) Get(ctx context.Context, ownerID, docID string) (*model.Document, error) {
	return s.docs.GetByOwner(ctx, ownerID, docID)
}

// SharedView is what a capability holder gets to see about a document.
type SharedView struct {
	Document      *model.Document `json:"document"`
	OwnerName     string          `json:"owner_name"`
	AllowComments bool            `json:"allow_comments"`
	AllowDownload bool            `json:"allow_download"`
}

// GetShared resolves a bearer token into the shared document. Invalid and
// expired tokens read as not-found, same as tokens that never existed.
func (s *DocumentService) GetShared(ctx context.Context, tok string) (*SharedView, error) {
	cap, err := s.shares.FindValid(ctx, tok, timeutil.NowUnix())
	if err != nil {
		return nil, err
	}
	doc, err := s.docs.GetByID(ctx, cap.DocumentID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, doc.OwnerID)
	if err != nil {
		return nil, err
	}
	return &SharedView{
		Document:      doc,
		OwnerName:     owner.Name,
		AllowComments: cap.AllowComments,
		AllowDownload: cap.AllowDownload,
	}, nil
}

// OpenPayload streams the document bytes for a principal holding download
// rights. Owners always qualify; capability holders only when the flag is
// set.
func (s *DocumentService) OpenPayload(ctx context.Context, principal access.Principal, docID string) (filestore.ReadSeekCloser, *model.Document, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	perms, err := s.engine.Resolve(ctx, principal, doc, timeutil.NowUnix())
	if err != nil {
		return nil, nil, err
	}
	if !perms.Has(access.PermDownload) {
		return nil, nil, appErr.ErrForbidden
	}
	reader, err := s.store.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return reader, doc, nil
}

// PayloadURL returns a direct URL for stores that cannot stream through
// the process, subject to the same download check as OpenPayload.
func (s *DocumentService) PayloadURL(ctx context.Context, principal access.Principal, docID, baseURL string) (string, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return "", err
	}
	perms, err := s.engine.Resolve(ctx, principal, doc, timeutil.NowUnix())
	if err != nil {
		return "", err
	}
	if !perms.Has(access.PermDownload) {
		return "", appErr.ErrForbidden
	}
	return s.store.URL(doc.StorageKey, baseURL), nil
}

// StreamsPayloads reports whether the configured store serves bytes
// through the process; otherwise downloads redirect to PayloadURL.
func (s *DocumentService) StreamsPayloads() bool {
	return s.store.Type() == "local"
}

// ResolveView reports whether the principal may view the document at all.
func (s *DocumentService) ResolveView(ctx context.Context, principal access.Principal, docID string) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	perms, err := s.engine.Resolve(ctx, principal, doc, timeutil.NowUnix())
	if err != nil {
		return nil, err
	}
	if !perms.Has(access.PermView) {
		return nil, appErr.ErrForbidden
	}
	return doc, nil
}

// Delete removes the document row plus its capability and comments in one
// transaction, then drops the blob best effort.
func (s *DocumentService) Delete(ctx context.Context, ownerID, docID string) error {
	storageKey, err := s.docs.DeleteCascade(ctx, ownerID, docID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, storageKey); err != nil {
		logutil.GetLogger(ctx).Warn("blob delete failed",
			zap.String("storage_key", storageKey), zap.Error(err))
	}
	return nil
}
