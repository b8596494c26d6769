package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docshare-app/docshare/internal/pkg/response"
	"github.com/docshare-app/docshare/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
}

func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

type updatePermissionsRequest struct {
	AllowComments bool `json:"allow_comments"`
	AllowDownload bool `json:"allow_download"`
}

type sendShareEmailRequest struct {
	Email string `json:"email"`
}

type shareResponse struct {
	DocumentID    string `json:"document_id"`
	Token         string `json:"token"`
	URL           string `json:"url"`
	ExpiresAt     int64  `json:"expires_at"`
	AllowComments bool   `json:"allow_comments"`
	AllowDownload bool   `json:"allow_download"`
}

func (h *ShareHandler) Create(c *gin.Context) {
	cap, err := h.shares.CreateOrGetShare(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.toResponse(cap.DocumentID, cap.Token, cap.ExpiresAt, cap.AllowComments, cap.AllowDownload))
}

func (h *ShareHandler) Refresh(c *gin.Context) {
	cap, err := h.shares.RefreshShare(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.toResponse(cap.DocumentID, cap.Token, cap.ExpiresAt, cap.AllowComments, cap.AllowDownload))
}

func (h *ShareHandler) Get(c *gin.Context) {
	cap, err := h.shares.GetShare(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.toResponse(cap.DocumentID, cap.Token, cap.ExpiresAt, cap.AllowComments, cap.AllowDownload))
}

func (h *ShareHandler) UpdatePermissions(c *gin.Context) {
	var req updatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	cap, err := h.shares.UpdatePermissions(c.Request.Context(), getUserID(c), c.Param("id"), req.AllowComments, req.AllowDownload)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, h.toResponse(cap.DocumentID, cap.Token, cap.ExpiresAt, cap.AllowComments, cap.AllowDownload))
}

// SendEmail queues the share mail and answers immediately; delivery
// problems surface in the logs, not here.
func (h *ShareHandler) SendEmail(c *gin.Context) {
	var req sendShareEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
		return
	}
	if err := h.shares.SendByEmail(c.Request.Context(), getUserID(c), c.Param("id"), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "share link queued for delivery"})
}

func (h *ShareHandler) ListShared(c *gin.Context) {
	items, err := h.shares.ListShared(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"shares": items})
}

func (h *ShareHandler) toResponse(docID, token string, expiresAt int64, allowComments, allowDownload bool) shareResponse {
	return shareResponse{
		DocumentID:    docID,
		Token:         token,
		URL:           h.shares.ShareURL(token),
		ExpiresAt:     expiresAt,
		AllowComments: allowComments,
		AllowDownload: allowDownload,
	}
}
