package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/pkg/response"
	"github.com/docshare-app/docshare/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to open file")
		return
	}
	defer opened.Close()

	doc, err := h.documents.Upload(c.Request.Context(), getUserID(c), filepath.Base(file.Filename), opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// Download serves the payload to any principal the policy engine grants
// download rights: the owner, or a share-token holder whose capability
// allows it.
func (h *DocumentHandler) Download(c *gin.Context) {
	principal := principalFrom(c, c.Query("share_token"))
	h.servePayload(c, principal, c.Param("id"))
}

// PublicGet resolves a share token into the document it covers. Unknown
// and expired tokens both come back as not-found.
func (h *DocumentHandler) PublicGet(c *gin.Context) {
	view, err := h.documents.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

// PublicDownload serves the payload to a share-token holder, provided the
// capability allows downloads.
func (h *DocumentHandler) PublicDownload(c *gin.Context) {
	tok := c.Param("token")
	view, err := h.documents.GetShared(c.Request.Context(), tok)
	if err != nil {
		handleError(c, err)
		return
	}
	h.servePayload(c, access.Guest(tok), view.Document.ID)
}

func (h *DocumentHandler) servePayload(c *gin.Context, principal access.Principal, docID string) {
	if !h.documents.StreamsPayloads() {
		target, err := h.documents.PayloadURL(c.Request.Context(), principal, docID, requestBaseURL(c))
		if err != nil {
			handleError(c, err)
			return
		}
		c.Redirect(http.StatusFound, target)
		return
	}
	reader, doc, err := h.documents.OpenPayload(c.Request.Context(), principal, docID)
	if err != nil {
		handleError(c, err)
		return
	}
	defer reader.Close()
	contentType := mime.TypeByExtension(filepath.Ext(doc.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	_, _ = reader.Seek(0, io.SeekStart)
	_, _ = io.Copy(c.Writer, reader)
}
