package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"diarydesk/internal/auth"
	"diarydesk/internal/cache"
	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/logger"
	"diarydesk/internal/model"
	"diarydesk/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// ProfileUpdate carries the profile fields a user may change. Nil fields are kept.
type ProfileUpdate struct {
	Name         *string
	Bio          *string
	ProfileImage *string
	Preferences  *model.Preferences
}

// UserService exposes operations on the authenticated user's account.
type UserService interface {
	GetProfile(ctx context.Context, id string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, id string, claims *auth.Claims) error
}

type userService struct {
	users      repository.UserRepository
	notes      repository.NoteRepository
	cache      *cache.Client
	tokenStore auth.TokenStoreInterface
	now        func() time.Time
}

// NewUserService builds a UserService with repositories and cache.
func NewUserService(users repository.UserRepository, notes repository.NoteRepository, cache *cache.Client, tokenStore auth.TokenStoreInterface) UserService {
	return &userService{
		users:      users,
		notes:      notes,
		cache:      cache,
		tokenStore: tokenStore,
		now:        time.Now,
	}
}

func (s *userService) cacheKey(id string) string {
	return "user:" + id
}

func (s *userService) GetProfile(ctx context.Context, id string) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, userError(err)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*model.User, error) {
	change := repository.UserUpdate{
		Bio:          upd.Bio,
		ProfileImage: upd.ProfileImage,
		UpdatedAt:    s.now().UTC(),
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		switch n := utf8.RuneCountInString(name); {
		case n > 50:
			return nil, apperrors.NewValidationError("name", "Name must be between 3 and 50 characters")
		case n >= 3:
			change.Name = &name
		}
	}

	if upd.Preferences != nil {
		prefs := *upd.Preferences
		if prefs.Theme == "" {
			prefs.Theme = model.ThemeLight
		}
		if prefs.Theme != model.ThemeLight && prefs.Theme != model.ThemeDark {
			return nil, apperrors.NewValidationError("preferences.theme", "Theme must be light or dark")
		}
		change.Preferences = &prefs
	}

	user, err := s.users.Update(ctx, id, change)
	if err != nil {
		return nil, userError(err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperrors.NewValidationError("password", "Both current and new passwords are required")
	}
	if utf8.RuneCountInString(newPassword) < 5 {
		return apperrors.NewValidationError("newPassword", "New password must be at least 5 characters")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return userError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, id, string(hashed), s.now().UTC()); err != nil {
		return userError(err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return nil
}

// DeleteAccount removes the user's notes, then the user, then revokes the
// presenting token.
func (s *userService) DeleteAccount(ctx context.Context, id string, claims *auth.Claims) error {
	deleted, err := s.notes.DeleteByOwner(ctx, id)
	if err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return userError(err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	logger.FromContext(ctx).Info().Str("user_id", id).Int64("notes_deleted", deleted).Msg("account deleted")

	if claims != nil {
		if err := s.tokenStore.Revoke(ctx, claims.ID, claims.TTL()); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	return nil
}

func userError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrUserNotFound
	}
	return err
}
