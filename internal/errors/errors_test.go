package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation error keeps field message",
			err:        NewValidationError("password", "Password must be at least 5 characters long"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Password must be at least 5 characters long",
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("update note: %w", ErrNoteNotFound),
			wantStatus: http.StatusNotFound,
			wantMsg:    ErrNoteNotFound.Error(),
		},
		{
			name:       "action specific not found",
			err:        fmt.Errorf("update note: %w", NoteNotFound("update")),
			wantStatus: http.StatusNotFound,
			wantMsg:    "Note not found or you don't have permission to update it",
		},
		{
			name:       "duplicate email is a 400",
			err:        ErrEmailTaken,
			wantStatus: http.StatusBadRequest,
			wantMsg:    ErrEmailTaken.Error(),
		},
		{
			name:       "invalid token",
			err:        ErrInvalidToken,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    ErrInvalidToken.Error(),
		},
		{
			name:       "unknown errors are suppressed",
			err:        errors.New("connection refused by 10.0.0.3"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantMsg, httpErr.Message)

			resp := httpErr.ToErrorResponse()
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMsg, resp.Error)
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("create note: %w", NewValidationError("title", "Title must be between 3 and 200 characters"))
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(ErrNoteNotFound, ErrValidation))
}
