package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/config"
	"github.com/docshare-app/docshare/internal/filestore"
	"github.com/docshare-app/docshare/internal/handler"
	"github.com/docshare-app/docshare/internal/middleware"
	"github.com/docshare-app/docshare/internal/pkg/token"
	"github.com/docshare-app/docshare/internal/repo"
	"github.com/docshare-app/docshare/internal/service"
	"github.com/docshare-app/docshare/test/testutil"
)

type noopSender struct{}

func (noopSender) Send(to, subject, body string) error {
	return nil
}

func setupRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(db)
	docRepo := repo.NewDocumentRepo(db)
	shareRepo := repo.NewShareRepo(db)
	resetRepo := repo.NewResetTokenRepo(db)
	commentRepo := repo.NewCommentRepo(db)

	tmpDir, err := os.MkdirTemp("", "docshare-upload-*")
	require.NoError(t, err)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": tmpDir,
		},
	})
	require.NoError(t, err)

	jwtSecret := []byte("test-secret")
	publicURL := "https://docshare.example.com"
	mailer := service.NewAsyncMailer(noopSender{}, 8)
	engine := access.NewEngine(shareRepo)

	authService := service.NewAuthService(userRepo, resetRepo, mailer, jwtSecret, time.Hour, publicURL)
	documentService := service.NewDocumentService(docRepo, shareRepo, userRepo, engine, store)
	shareService := service.NewShareService(docRepo, shareRepo, userRepo, mailer, publicURL)
	commentService := service.NewCommentService(engine, docRepo, commentRepo, userRepo)

	router := gin.New()
	router.Use(middleware.RequestID())
	handler.RegisterRoutes(router.Group("/api/v1"), handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Documents: handler.NewDocumentHandler(documentService),
		Shares:    handler.NewShareHandler(shareService),
		Comments:  handler.NewCommentHandler(commentService, documentService),
		JWTSecret: jwtSecret,
	})

	return router, func() {
		mailer.Stop()
		cleanup()
		_ = os.RemoveAll(tmpDir)
	}
}

type apiEnvelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var envelope apiEnvelope
	if resp.Body.Len() > 0 {
		_ = json.Unmarshal(resp.Body.Bytes(), &envelope)
	}
	return resp, envelope
}

func registerUser(t *testing.T, router http.Handler, name string) (userID, bearer string) {
	t.Helper()
	resp, envelope := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     name,
		"email":    token.New() + "@example.com",
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var out struct {
		UserID string `json:"user_id"`
		Token  string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	require.NotEmpty(t, out.Token)
	return out.UserID, out.Token
}

func uploadDocument(t *testing.T, router http.Handler, bearer, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope apiEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	var doc struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &doc))
	require.NotEmpty(t, doc.ID)
	return doc.ID
}
