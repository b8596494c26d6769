package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/middleware"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
	"github.com/docshare-app/docshare/internal/pkg/response"
)

func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		if c.Request.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// principalFrom builds the acting principal: an authenticated user when
// the JWT middleware recorded one, a guest when a share token came along,
// otherwise anonymous.
func principalFrom(c *gin.Context, shareToken string) access.Principal {
	if userID := getUserID(c); userID != "" {
		return access.Authenticated(userID)
	}
	return access.Guest(shareToken)
}

// handleError maps service errors to transport responses. Forbidden and
// not-found deliberately produce the same 404 shape: whether the resource
// exists is not the caller's to learn.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, appErr.ErrInvalidParent):
		response.Error(c, http.StatusBadRequest, "invalid_parent", "parent comment is missing or on another document")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, "conflict", "conflict")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too_many", "too many requests")
	case appErr.IsDenied(err):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
