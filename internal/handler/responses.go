package handler

import "diarydesk/internal/model"

// PublicUser is the user summary returned with a fresh token.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func publicUser(u *model.User) PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Success   bool       `json:"success"`
	AuthToken string     `json:"authtoken"`
	User      PublicUser `json:"user"`
}

// UserResponse wraps a full profile.
type UserResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *model.User `json:"user"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NoteResponse wraps a single note.
type NoteResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Note    *model.Note `json:"note"`
}

// NotesResponse wraps a list of notes.
type NotesResponse struct {
	Success bool         `json:"success"`
	Notes   []model.Note `json:"notes"`
}

// StatsResponse wraps note statistics.
type StatsResponse struct {
	Success bool             `json:"success"`
	Stats   *model.NoteStats `json:"stats"`
}

// TagsResponse lists a user's tags.
type TagsResponse struct {
	Success bool     `json:"success"`
	Tags    []string `json:"tags"`
}

// BulkDeleteResponse reports how many notes were removed.
type BulkDeleteResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// RenderResponse carries a note rendered to HTML.
type RenderResponse struct {
	Success bool   `json:"success"`
	HTML    string `json:"html"`
}

// AttachmentResponse describes an uploaded file.
type AttachmentResponse struct {
	Success    bool              `json:"success"`
	Attachment *model.Attachment `json:"attachment"`
}
