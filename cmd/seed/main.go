package main

import (
	"context"
	"errors"
	"os"

	"diarydesk/internal/auth"
	"diarydesk/internal/config"
	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/logger"
	"diarydesk/internal/model"
	"diarydesk/internal/repository"
	"diarydesk/internal/service"
)

func main() {
	log := logger.NewLogger("seed")
	log.Info().Msg("starting seed script")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("connect to database")
	}
	defer store.Close(ctx)
	log.Info().Str("driver", store.Backend).Msg("connected to database")

	jwtService := auth.NewJWTService(cfg.App.JWTSecret, cfg.App.TokenTTL)
	authService := service.NewAuthService(store.Users, jwtService, auth.NewTokenStore(nil))
	noteService := service.NewNoteService(store.Notes)

	name := envOr("SEED_NAME", "Demo User")
	email := envOr("SEED_EMAIL", "demo@diarydesk.local")
	password := envOr("SEED_PASSWORD", "demo-pass")

	owner, err := demoUser(ctx, authService, name, email, password)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("prepare demo user")
	}

	source := os.Getenv("SEED_SOURCE")
	notes, err := loadNotes(ctx, source)
	if err != nil {
		log.Fatal().Err(err).Str("source", source).Msg("load seed notes")
	}
	log.Info().Int("count", len(notes)).Msg("loaded seed notes")

	created, skipped, err := seedNotes(ctx, noteService, owner.ID, notes)
	if err != nil {
		log.Fatal().Err(err).Msg("seed notes")
	}

	log.Info().
		Str("email", email).
		Int("created", created).
		Int("skipped", skipped).
		Msg("seed completed successfully")
}

// demoUser registers the demo account, or logs into it when it already exists.
func demoUser(ctx context.Context, svc service.AuthService, name, email, password string) (*model.User, error) {
	_, user, err := svc.Register(ctx, name, email, password)
	if errors.Is(err, apperrors.ErrEmailTaken) {
		_, user, err = svc.Login(ctx, email, password)
	}
	return user, err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
