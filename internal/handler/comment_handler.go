package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/pkg/response"
	"github.com/docshare-app/docshare/internal/service"
)

type CommentHandler struct {
	comments  *service.CommentService
	documents *service.DocumentService
	limiter   *guestCommentRateLimiter
}

func NewCommentHandler(comments *service.CommentService, documents *service.DocumentService) *CommentHandler {
	return &CommentHandler{
		comments:  comments,
		documents: documents,
		limiter:   newGuestCommentRateLimiter(10 * time.Second),
	}
}

// guestCommentRateLimiter keeps one post per window per client; only
// unauthenticated posters go through it.
type guestCommentRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func newGuestCommentRateLimiter(window time.Duration) *guestCommentRateLimiter {
	return &guestCommentRateLimiter{
		window: window,
		last:   make(map[string]time.Time),
	}
}

func (l *guestCommentRateLimiter) allow(actorID string) bool {
	if l == nil || l.window <= 0 {
		return true
	}
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, exists := l.last[actorID]; exists && now.Sub(last) < l.window {
		return false
	}
	l.last[actorID] = now
	return true
}

type postCommentRequest struct {
	Content   string `json:"content"`
	ParentID  string `json:"parent_id"`
	GuestName string `json:"guest_name"`
}

// Post handles the authenticated comment route on a document the caller
// can reach as owner or collaborator.
func (h *CommentHandler) Post(c *gin.Context) {
	var req postCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	principal := access.Authenticated(getUserID(c))
	node, err := h.comments.PostComment(c.Request.Context(), c.Param("id"), principal, "", req.Content, req.ParentID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, node)
}

func (h *CommentHandler) List(c *gin.Context) {
	principal := access.Authenticated(getUserID(c))
	doc, err := h.documents.ResolveView(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	nodes, err := h.comments.ListComments(c.Request.Context(), doc.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"comments": nodes})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	principal := access.Authenticated(getUserID(c))
	if err := h.comments.DeleteComment(c.Request.Context(), c.Param("id"), principal); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// PublicPost serves the share page: authenticated visitors post under
// their own name, anonymous ones as rate-limited guests through the
// capability token.
func (h *CommentHandler) PublicPost(c *gin.Context) {
	var req postCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	tok := c.Param("token")
	view, err := h.documents.GetShared(c.Request.Context(), tok)
	if err != nil {
		handleError(c, err)
		return
	}
	principal := principalFrom(c, tok)
	if principal.Kind == access.KindGuest && !h.limiter.allow(c.ClientIP()) {
		response.Error(c, http.StatusTooManyRequests, "too_many", "slow down")
		return
	}
	node, err := h.comments.PostComment(c.Request.Context(), view.Document.ID, principal, req.GuestName, req.Content, req.ParentID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, node)
}

func (h *CommentHandler) PublicList(c *gin.Context) {
	view, err := h.documents.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	nodes, err := h.comments.ListComments(c.Request.Context(), view.Document.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"comments": nodes})
}
