package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"diarydesk/internal/auth"
	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/logger"
	"diarydesk/internal/model"
	"diarydesk/internal/repository"
	"diarydesk/internal/validation"
)

const bcryptCost = 10

var validate = validation.New()

// dummyHash is compared against on unknown emails so that a failed login
// costs the same whether or not the account exists.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("diarydesk-no-such-user"), bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return h
})

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (token string, user *model.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	now        func() time.Time
	compare    func(hash, password []byte) error
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		now:        time.Now,
		compare:    bcrypt.CompareHashAndPassword,
	}
}

type signupInput struct {
	Name     string `json:"name" validate:"min=3,max=50" message:"Name must be between 3 and 50 characters"`
	Email    string `json:"email" validate:"required,email" message:"Please enter a valid email"`
	Password string `json:"password" validate:"min=5" message:"Password must be at least 5 characters long"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" message:"Please enter a valid email"`
	Password string `json:"password" validate:"required" message:"Password is required"`
}

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user with a hashed password and returns a token for it.
func (s *authService) Register(ctx context.Context, name, email, password string) (string, *model.User, error) {
	in := signupInput{
		Name:     strings.TrimSpace(name),
		Email:    NormalizeEmail(email),
		Password: password,
	}
	if err := validate.Validate(&in); err != nil {
		return "", nil, err
	}

	// Check if user already exists
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return "", nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Preferences:  model.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same address
		if errors.Is(err, repository.ErrDuplicateKey) {
			return "", nil, apperrors.ErrEmailTaken
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}
	logger.FromContext(ctx).Info().Str("user_id", user.ID).Msg("user registered")

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// Login authenticates a user and returns a fresh token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	in := loginInput{Email: NormalizeEmail(email), Password: password}
	if err := validate.Validate(&in); err != nil {
		return "", nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		_ = s.compare(dummyHash(), []byte(in.Password))
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// Logout revokes the presented token until it would have expired.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return apperrors.ErrUnauthorized
	}
	return s.tokenStore.Revoke(ctx, claims.ID, claims.TTL())
}
