package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"diarydesk/internal/auth"
	"diarydesk/internal/config"
	"diarydesk/internal/db"
	"diarydesk/internal/handler"
	"diarydesk/internal/logger"
	"diarydesk/internal/repository"
	"diarydesk/internal/router"
	"diarydesk/internal/service"
)

// newTestBackend starts the real API over an in-memory sqlite store.
func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()

	gdb, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	store, err := repository.NewGormStore(gdb, config.DriverSQLite)
	require.NoError(t, err)

	cfg := config.Default()
	jwtService := auth.NewJWTService("client-test-secret", time.Hour)
	tokens := auth.NewTokenStore(nil)

	e := echo.New()
	router.Register(e, cfg, logger.Nop(), router.Security{JWT: jwtService, Tokens: tokens}, router.Handlers{
		Auth:       handler.NewAuthHandler(service.NewAuthService(store.Users, jwtService, tokens)),
		User:       handler.NewUserHandler(service.NewUserService(store.Users, store.Notes, nil, tokens)),
		Note:       handler.NewNoteHandler(service.NewNoteService(store.Notes)),
		Attachment: handler.NewAttachmentHandler(nil),
		Health:     handler.NewHealthHandler(store, store.Backend, cfg.App.Env),
	})

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close(context.Background())
	})
	return srv
}

type testClient struct {
	api     *API
	tokens  TokenStore
	session *Session
	cache   *NotesCache
}

func newTestClient(t *testing.T, baseURL string, tokens TokenStore) *testClient {
	t.Helper()
	api := NewAPI(Config{BaseURL: baseURL, Timeout: 5 * time.Second}, tokens)
	session := NewSession(api, tokens)
	return &testClient{api: api, tokens: tokens, session: session, cache: NewNotesCache(api, session)}
}
