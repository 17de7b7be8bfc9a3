package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"diarydesk/internal/auth"
	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/model"
	"diarydesk/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id string, upd repository.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, hash string, at time.Time) error {
	args := m.Called(ctx, id, hash, at)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		nameField     string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
		expectedMsg   string
	}{
		{
			name:      "successful registration",
			nameField: "  Test User ",
			email:     " Test@Example.com",
			password:  "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:          "user already exists",
			nameField:     "Existing User",
			email:         "existing@example.com",
			password:      "password123",
			expectedError: apperrors.ErrEmailTaken,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
		},
		{
			name:          "concurrent signup hits unique index",
			nameField:     "Racer",
			email:         "race@example.com",
			password:      "password123",
			expectedError: apperrors.ErrEmailTaken,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, repository.ErrNotFound)
				m.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateKey)
			},
		},
		{
			name:          "short password",
			nameField:     "Test User",
			email:         "test@example.com",
			password:      "1234",
			expectedError: apperrors.ErrValidation,
			expectedMsg:   "Password must be at least 5 characters long",
			setupMock:     func(m *MockUserRepository) {},
		},
		{
			name:          "short name after trimming",
			nameField:     "  ab  ",
			email:         "test@example.com",
			password:      "password123",
			expectedError: apperrors.ErrValidation,
			expectedMsg:   "Name must be between 3 and 50 characters",
			setupMock:     func(m *MockUserRepository) {},
		},
		{
			name:          "invalid email",
			nameField:     "Test User",
			email:         "not-an-email",
			password:      "password123",
			expectedError: apperrors.ErrValidation,
			expectedMsg:   "Please enter a valid email",
			setupMock:     func(m *MockUserRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret", time.Hour)
			mockTokenStore := new(MockTokenStore)

			service := NewAuthService(mockRepo, jwtService, mockTokenStore)
			token, user, err := service.Register(context.Background(), tt.nameField, tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				if tt.expectedMsg != "" {
					assert.Equal(t, tt.expectedMsg, err.Error())
				}
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				require.NotNil(t, user)
				assert.Equal(t, "test@example.com", user.Email)
				assert.Equal(t, "Test User", user.Name)
				assert.NotEqual(t, tt.password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))
				assert.Equal(t, model.DefaultPreferences(), user.Preferences)

				claims, err := jwtService.ValidateToken(token)
				require.NoError(t, err)
				assert.Equal(t, user.ID, claims.UserID())
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &model.User{ID: "user-1", Email: "test@example.com", PasswordHash: string(hashedPassword)}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "TEST@example.com ",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, repository.ErrNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong-password",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:          "missing password",
			email:         "test@example.com",
			password:      "",
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrValidation,
		},
		{
			name:     "storage failure is not a credentials error",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, errors.New("connection reset"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret", time.Hour)
			service := NewAuthService(mockRepo, jwtService, new(MockTokenStore))

			token, user, err := service.Login(context.Background(), tt.email, tt.password)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
				assert.Nil(t, user)
			case tt.name == "storage failure is not a credentials error":
				require.Error(t, err)
				assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, stored.ID, user.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginComparesHashForUnknownEmail(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &model.User{ID: "user-1", Email: "test@example.com", PasswordHash: string(hashedPassword)}

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
	mockRepo.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)

	svc := NewAuthService(mockRepo, auth.NewJWTService("test-secret", time.Hour), new(MockTokenStore)).(*authService)
	var hashes [][]byte
	svc.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, _, err = svc.Login(context.Background(), "test@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.Len(t, hashes, 2)
	assert.Equal(t, dummyHash(), hashes[0])
	assert.Equal(t, []byte(stored.PasswordHash), hashes[1])

	cost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	token, err := jwtService.GenerateToken("user-1")
	require.NoError(t, err)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)

	mockTokenStore := new(MockTokenStore)
	mockTokenStore.On("Revoke", mock.Anything, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 59*time.Minute && ttl <= time.Hour
	})).Return(nil)

	service := NewAuthService(new(MockUserRepository), jwtService, mockTokenStore)
	require.NoError(t, service.Logout(context.Background(), claims))
	assert.ErrorIs(t, service.Logout(context.Background(), nil), apperrors.ErrUnauthorized)

	mockTokenStore.AssertExpectations(t)
}
