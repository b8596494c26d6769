package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/docshare-app/docshare/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Documents *DocumentHandler
	Shares    *ShareHandler
	Comments  *CommentHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/register", deps.Auth.Register)
	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/auth/forgot-password", deps.Auth.ForgotPassword)
	api.GET("/auth/reset-password/:token", deps.Auth.ValidateResetToken)
	api.POST("/auth/reset-password", deps.Auth.ResetPassword)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/auth/change-password", deps.Auth.ChangePassword)
	authGroup.POST("/documents", deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)
	authGroup.GET("/documents/:id/download", deps.Documents.Download)

	authGroup.POST("/documents/:id/share", deps.Shares.Create)
	authGroup.GET("/documents/:id/share", deps.Shares.Get)
	authGroup.POST("/documents/:id/share/refresh", deps.Shares.Refresh)
	authGroup.PUT("/documents/:id/share/permissions", deps.Shares.UpdatePermissions)
	authGroup.POST("/documents/:id/share/email", deps.Shares.SendEmail)
	authGroup.GET("/shares", deps.Shares.ListShared)

	authGroup.POST("/documents/:id/comments", deps.Comments.Post)
	authGroup.GET("/documents/:id/comments", deps.Comments.List)
	authGroup.DELETE("/comments/:id", deps.Comments.Delete)

	// share-token surface: same routes for guests and logged-in visitors
	publicGroup := api.Group("")
	publicGroup.Use(middleware.OptionalJWTAuth(deps.JWTSecret))
	publicGroup.GET("/shared/:token", deps.Documents.PublicGet)
	publicGroup.GET("/shared/:token/download", deps.Documents.PublicDownload)
	publicGroup.GET("/shared/:token/comments", deps.Comments.PublicList)
	publicGroup.POST("/shared/:token/comments", deps.Comments.PublicPost)
}
