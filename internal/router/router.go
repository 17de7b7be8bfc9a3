package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"diarydesk/docs"
	"diarydesk/internal/auth"
	"diarydesk/internal/cache"
	"diarydesk/internal/config"
	"diarydesk/internal/handler"
	"diarydesk/internal/logger"
	"diarydesk/internal/validation"
)

// Security groups what the router needs to authenticate and throttle requests.
type Security struct {
	JWT    *auth.JWTService
	Tokens auth.TokenStoreInterface
	Cache  *cache.Client
}

// Handlers are the HTTP endpoints mounted by Register. MCP is optional.
type Handlers struct {
	Auth       *handler.AuthHandler
	User       *handler.UserHandler
	Note       *handler.NoteHandler
	Attachment *handler.AttachmentHandler
	Health     *handler.HealthHandler
	MCP        http.Handler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, log *logger.Logger, sec Security, h Handlers) {
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(log, cfg.IsProduction())
	e.Validator = validation.New()
	// Validate has already rejected malformed ranges.
	proxies, _ := cfg.HTTP.ProxyRanges()
	e.IPExtractor = clientIPExtractor(proxies)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(contextLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "auth-token", "X-Requested-With",
		},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))
	e.Use(middleware.BodyLimit(cfg.HTTP.BodyLimit))

	limits := cfg.RateLimit
	if !limits.Disabled {
		e.Use(rateLimiter(sec.Cache, "all", limits.Window, limits.Max, tooManyRequests))
	}

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(cfg.SwaggerHost, "https://")
		docs.SwaggerInfo.Host = strings.TrimPrefix(host, "http://")
	}

	e.GET("/", h.Health.Root)
	e.GET("/health", h.Health.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireAuth := JWTMiddleware(sec.JWT, sec.Tokens)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	if !limits.Disabled {
		authGroup.Use(rateLimiter(sec.Cache, "auth", limits.Window, limits.AuthMax, tooManyAuthRequests))
	}
	authGroup.POST("/createuser", h.Auth.CreateUser)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/getuser", h.User.GetUser, requireAuth)
	authGroup.PUT("/updateprofile", h.User.UpdateProfile, requireAuth)
	authGroup.PUT("/changepassword", h.User.ChangePassword, requireAuth)
	authGroup.DELETE("/deleteaccount", h.User.DeleteAccount, requireAuth)
	authGroup.POST("/logout", h.Auth.Logout, requireAuth)

	notes := api.Group("/notes", requireAuth)
	notes.GET("/fetchallnotes", h.Note.FetchAllNotes)
	notes.POST("/addnote", h.Note.AddNote)
	notes.PUT("/updatenote/:id", h.Note.UpdateNote)
	notes.DELETE("/deletenote/:id", h.Note.DeleteNote)
	notes.GET("/search", h.Note.Search)
	notes.GET("/stats", h.Note.Stats)
	notes.GET("/tags", h.Note.Tags)
	notes.POST("/duplicate/:id", h.Note.Duplicate)
	notes.DELETE("/bulk-delete", h.Note.BulkDelete)
	notes.GET("/export", h.Note.Export)
	notes.PUT("/:id/todos/:todoId/toggle", h.Note.ToggleTodo)
	notes.GET("/render/:id", h.Note.Render)
	notes.POST("/upload", h.Attachment.Upload)

	if h.MCP != nil {
		e.Any("/mcp", echo.WrapHandler(h.MCP), requireAuth, withUserContext)
	}
}
