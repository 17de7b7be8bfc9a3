package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"diarydesk/internal/auth"
	"diarydesk/internal/cache"
	"diarydesk/internal/config"
	"diarydesk/internal/handler"
	"diarydesk/internal/logger"
	mcpserver "diarydesk/internal/mcp"
	"diarydesk/internal/repository"
	"diarydesk/internal/router"
	"diarydesk/internal/service"
	"diarydesk/internal/storage"
)

// @title Diary Desk API
// @version 1.0
// @description Personal notes service with JWT authentication, search, statistics and export.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name auth-token
// @description JWT issued by createuser or login.
func main() {
	log := logger.NewLogger("api")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := repository.Open(connectCtx, cfg.Storage)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("database init")
	}
	log.Info().Str("driver", store.Backend).Msg("database connected")

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if cacheClient.Enabled() {
		if err := cacheClient.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, continuing without cache")
		}
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.App.JWTSecret, cfg.App.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(store.Users, jwtService, tokenStore)
	userService := service.NewUserService(store.Users, store.Notes, cacheClient, tokenStore)
	noteService := service.NewNoteService(store.Notes)

	var blobs storage.BlobStore
	if cfg.UploadsEnabled() {
		minioStore, err := storage.NewMinioStore(ctx, cfg.MinIO)
		if err != nil {
			log.Fatal().Err(err).Str("endpoint", cfg.MinIO.Endpoint).Msg("object storage init")
		}
		blobs = minioStore
	}

	e := echo.New()
	router.Register(e, cfg, log,
		router.Security{JWT: jwtService, Tokens: tokenStore, Cache: cacheClient},
		router.Handlers{
			Auth:       handler.NewAuthHandler(authService),
			User:       handler.NewUserHandler(userService),
			Note:       handler.NewNoteHandler(noteService),
			Attachment: handler.NewAttachmentHandler(blobs),
			Health:     handler.NewHealthHandler(store, store.Backend, cfg.App.Env),
			MCP:        mcpserver.NewHTTPHandler(mcpserver.NewServer(noteService)),
		},
	)

	log.Info().Str("url", swaggerURL(cfg)).Msg("swagger documentation available")

	go func() {
		addr := ":" + cfg.App.Port
		log.Info().Str("addr", addr).Str("env", cfg.App.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("database close")
	}
	if err := cacheClient.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.App.Port
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}
