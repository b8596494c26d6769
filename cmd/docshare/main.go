package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docshare-app/docshare/internal/access"
	"github.com/docshare-app/docshare/internal/config"
	"github.com/docshare-app/docshare/internal/db"
	"github.com/docshare-app/docshare/internal/filestore"
	"github.com/docshare-app/docshare/internal/handler"
	"github.com/docshare-app/docshare/internal/job"
	"github.com/docshare-app/docshare/internal/middleware"
	"github.com/docshare-app/docshare/internal/repo"
	"github.com/docshare-app/docshare/internal/schedule"
	"github.com/docshare-app/docshare/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docshare",
		Short: "docshare backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docshare server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("public_url", cfg.PublicURL),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	docRepo := repo.NewDocumentRepo(conn)
	shareRepo := repo.NewShareRepo(conn)
	resetRepo := repo.NewResetTokenRepo(conn)
	commentRepo := repo.NewCommentRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	mailer := service.NewAsyncMailer(service.NewEmailSender(cfg.Mail), cfg.Mail.QueueSize)
	defer mailer.Stop()

	engine := access.NewEngine(shareRepo)
	jwtTTL := time.Hour * time.Duration(cfg.JWTTTLHours)
	authService := service.NewAuthService(userRepo, resetRepo, mailer, []byte(cfg.JWTSecret), jwtTTL, cfg.PublicURL)
	documentService := service.NewDocumentService(docRepo, shareRepo, userRepo, engine, store)
	shareService := service.NewShareService(docRepo, shareRepo, userRepo, mailer, cfg.PublicURL)
	commentService := service.NewCommentService(engine, docRepo, commentRepo, userRepo)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewResetTokenCleanupJob(resetRepo), "30 3 * * *"); err != nil {
		return err
	}
	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	scheduler.Start(schedCtx)
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Documents: handler.NewDocumentHandler(documentService),
		Shares:    handler.NewShareHandler(shareService),
		Comments:  handler.NewCommentHandler(commentService, documentService),
		JWTSecret: []byte(cfg.JWTSecret),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logutil.GetLogger(context.Background()).Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
