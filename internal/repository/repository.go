package repository

import (
	"errors"
	"slices"
	"strings"
	"time"

	"diarydesk/internal/model"
)

var (
	// ErrNotFound is returned when no record matches, including records owned by someone else.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// SortKey orders note listings.
type SortKey string

// Supported sort keys. The zero value sorts like SortDateCreated.
const (
	SortDateCreated      SortKey = "dateCreated"
	SortDateModified     SortKey = "dateModified"
	SortAlphabetical     SortKey = "alphabetical"
	SortAlphabeticalDesc SortKey = "alphabeticalDesc"
)

// ParseSortKey maps a query value to a SortKey, defaulting to SortDateCreated.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortDateModified, SortAlphabetical, SortAlphabeticalDesc:
		return k
	default:
		return SortDateCreated
	}
}

// NoteQuery filters and orders a user's notes.
type NoteQuery struct {
	// Query is a case-insensitive literal substring matched against title, description and tags.
	Query string
	// Tag, when set, keeps only notes carrying exactly this tag.
	Tag  string
	Sort SortKey
}

// Matches reports whether n satisfies the query filters.
func (q NoteQuery) Matches(n *model.Note) bool {
	if q.Tag != "" && !slices.Contains(n.Tags, q.Tag) {
		return false
	}
	if q.Query == "" {
		return true
	}
	needle := strings.ToLower(q.Query)
	if strings.Contains(strings.ToLower(n.Title), needle) ||
		strings.Contains(strings.ToLower(n.Description), needle) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// UserUpdate carries the profile fields to change. Nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	Bio          *string
	ProfileImage *string
	Preferences  *model.Preferences
	UpdatedAt    time.Time
}

// Apply merges the update into u.
func (upd UserUpdate) Apply(u *model.User) {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.ProfileImage != nil {
		u.ProfileImage = *upd.ProfileImage
	}
	if upd.Preferences != nil {
		u.Preferences = *upd.Preferences
	}
	u.UpdatedAt = upd.UpdatedAt
}

// NoteUpdate carries the note fields to change. Nil fields are left untouched.
type NoteUpdate struct {
	Title       *string
	Description *string
	Tags        *[]string
	Attachments *[]model.Attachment
	Images      *[]model.Image
	TodoItems   *[]model.TodoItem
	UpdatedAt   time.Time
}

// Apply merges the update into n.
func (upd NoteUpdate) Apply(n *model.Note) {
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Description != nil {
		n.Description = *upd.Description
	}
	if upd.Tags != nil {
		n.Tags = *upd.Tags
	}
	if upd.Attachments != nil {
		n.Attachments = *upd.Attachments
	}
	if upd.Images != nil {
		n.Images = *upd.Images
	}
	if upd.TodoItems != nil {
		n.TodoItems = *upd.TodoItems
	}
	n.UpdatedAt = upd.UpdatedAt
}
