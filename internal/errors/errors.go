package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned when no usable token is presented.
	ErrUnauthorized = errors.New("Access denied. No token provided.")
	// ErrInvalidToken is returned when a token fails signature, expiry or revocation checks.
	ErrInvalidToken = errors.New("Invalid token.")
	// ErrInvalidCredentials is returned for any failed login so callers cannot tell which field was wrong.
	ErrInvalidCredentials = errors.New("Please try to login with correct credentials")
	// ErrWrongPassword is returned when the current password does not match on password change.
	ErrWrongPassword = errors.New("Current password is incorrect")
	// ErrEmailTaken is returned when signing up with an email that already has an account.
	ErrEmailTaken = errors.New("Sorry a user with this email already exists")
	// ErrUserNotFound is returned when the authenticated account no longer exists.
	ErrUserNotFound = errors.New("User not found")
	// ErrNoteNotFound is returned when a note is absent or owned by someone else.
	ErrNoteNotFound = errors.New("Note not found or you don't have permission to access it")
	// ErrTodoNotFound is returned when a todo item id is not part of the note.
	ErrTodoNotFound = errors.New("Todo item not found")
	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("Invalid format. Supported formats: json, csv")
	// ErrStorageUnavailable is returned when object storage is not configured.
	ErrStorageUnavailable = errors.New("File uploads are not enabled")
)

// ValidationError reports a field-specific input problem.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NoteNotFoundError is ErrNoteNotFound worded for a specific action.
type NoteNotFoundError struct {
	Action string
}

// NoteNotFound returns a not-found error for action ("update", "delete", ...).
func NoteNotFound(action string) *NoteNotFoundError {
	return &NoteNotFoundError{Action: action}
}

func (e *NoteNotFoundError) Error() string {
	return "Note not found or you don't have permission to " + e.Action + " it"
}

// Is makes errors.Is(err, ErrNoteNotFound) hold.
func (e *NoteNotFoundError) Is(target error) bool {
	return target == ErrNoteNotFound
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unknown becomes
// a 500 whose message never carries the underlying cause.
func MapErrorToHTTP(err error) *HTTPError {
	var (
		verr *ValidationError
		nerr *NoteNotFoundError
	)
	switch {
	case errors.As(err, &verr):
		return NewHTTPError(http.StatusBadRequest, verr.Message, "VALIDATION_ERROR")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidToken.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrWrongPassword):
		return NewHTTPError(http.StatusBadRequest, ErrWrongPassword.Error(), "WRONG_PASSWORD")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusBadRequest, ErrEmailTaken.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.As(err, &nerr):
		return NewHTTPError(http.StatusNotFound, nerr.Error(), "NOTE_NOT_FOUND")
	case errors.Is(err, ErrNoteNotFound):
		return NewHTTPError(http.StatusNotFound, ErrNoteNotFound.Error(), "NOTE_NOT_FOUND")
	case errors.Is(err, ErrTodoNotFound):
		return NewHTTPError(http.StatusNotFound, ErrTodoNotFound.Error(), "TODO_NOT_FOUND")
	case errors.Is(err, ErrUnsupportedFormat):
		return NewHTTPError(http.StatusBadRequest, ErrUnsupportedFormat.Error(), "INVALID_FORMAT")
	case errors.Is(err, ErrStorageUnavailable):
		return NewHTTPError(http.StatusServiceUnavailable, ErrStorageUnavailable.Error(), "STORAGE_UNAVAILABLE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal Server Error", "INTERNAL_ERROR")
	}
}
