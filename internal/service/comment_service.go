package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/model"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/timeutil"
	"github.com/docshare-app/docshare/internal/repo"
	"github.com/docshare-app/docshare/internal/thread"
)

const (
	guestNameMaxLen   = 50
	defaultGuestName  = "Anonymous"
	fallbackDisplay   = "Guest"
	nameCacheSize     = 1024
	nameCacheTTL      = 5 * time.Minute
	commentContentMax = 10000
)

// CommentService gates posting through the policy engine, then stores and
// reassembles the per-document reply forest.
type CommentService struct {
	engine    *access.Engine
	docs      *repo.DocumentRepo
	comments  *repo.CommentRepo
	users     *repo.UserRepo
	nameCache *expirable.LRU[string, string]
}

func NewCommentService(engine *access.Engine, docs *repo.DocumentRepo, comments *repo.CommentRepo, users *repo.UserRepo) *CommentService {
	return &CommentService{
		engine:    engine,
		docs:      docs,
		comments:  comments,
		users:     users,
		nameCache: expirable.NewLRU[string, string](nameCacheSize, nil, nameCacheTTL),
	}
}

// PostComment resolves the principal's permissions and requires comment
// rights. Authenticated posters are recorded by user id; guests by name,
// truncated to 50 characters and defaulting to "Anonymous". The returned
// node carries the resolved display name.
func (s *CommentService) PostComment(ctx context.Context, docID string, principal access.Principal, guestName, content, parentID string) (*thread.Node, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > commentContentMax {
		return nil, appErr.ErrInvalid
	}
	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	perms, err := s.engine.Resolve(ctx, principal, doc, timeutil.NowUnix())
	if err != nil {
		return nil, err
	}
	if !perms.Has(access.PermComment) {
		return nil, appErr.ErrForbidden
	}

	comment := &model.Comment{
		ID:         newID(),
		DocumentID: docID,
		Content:    content,
	}
	if parentID != "" {
		comment.ParentID = sql.NullString{String: parentID, Valid: true}
	}
	display := ""
	if principal.Kind == access.KindAuthenticated {
		comment.AuthorUserID = sql.NullString{String: principal.UserID, Valid: true}
		display = s.displayName(ctx, principal.UserID)
	} else {
		name := normalizeGuestName(guestName)
		comment.GuestName = sql.NullString{String: name, Valid: true}
		display = name
	}
	inserted, err := s.comments.Insert(ctx, comment)
	if err != nil {
		return nil, err
	}
	return &thread.Node{
		ID:          inserted.ID,
		ParentID:    inserted.Parent(),
		Content:     inserted.Content,
		DisplayName: display,
		Ctime:       inserted.Ctime,
		Comment:     inserted,
		Replies:     make([]*thread.Node, 0),
	}, nil
}

// ListComments returns the document's comment forest, siblings in
// chronological order. The caller is responsible for having checked view
// permission on the document.
func (s *CommentService) ListComments(ctx context.Context, docID string) ([]*thread.Node, error) {
	comments, err := s.comments.ListByDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	roots := thread.Assemble(comments)
	for _, node := range thread.Flatten(roots) {
		c := node.Comment
		switch {
		case c.Authored():
			node.DisplayName = s.displayName(ctx, c.AuthorUserID.String)
		case c.GuestName.Valid:
			node.DisplayName = c.GuestName.String
		default:
			node.DisplayName = fallbackDisplay
		}
	}
	return roots, nil
}

// DeleteComment requires an authenticated principal; the store only
// removes the row when that user authored it, so guest comments are not
// deletable by anyone.
func (s *CommentService) DeleteComment(ctx context.Context, commentID string, principal access.Principal) error {
	if principal.Kind != access.KindAuthenticated {
		return appErr.ErrUnauthorized
	}
	return s.comments.Delete(ctx, commentID, principal.UserID)
}

func (s *CommentService) displayName(ctx context.Context, userID string) string {
	if name, ok := s.nameCache.Get(userID); ok {
		return name
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fallbackDisplay
	}
	s.nameCache.Add(userID, user.Name)
	return user.Name
}

func normalizeGuestName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultGuestName
	}
	runes := []rune(name)
	if len(runes) > guestNameMaxLen {
		return string(runes[:guestNameMaxLen])
	}
	return name
}
