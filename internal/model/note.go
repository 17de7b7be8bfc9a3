package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment describes a file linked to a note.
type Attachment struct {
	Filename   string    `json:"filename" bson:"filename"`
	URL        string    `json:"url" bson:"url"`
	Size       int64     `json:"size" bson:"size"`
	UploadDate time.Time `json:"uploadDate" bson:"uploadDate"`
}

// Image describes a picture linked to a note.
type Image struct {
	Filename   string    `json:"filename" bson:"filename"`
	URL        string    `json:"url" bson:"url"`
	Caption    string    `json:"caption,omitempty" bson:"caption,omitempty"`
	UploadDate time.Time `json:"uploadDate" bson:"uploadDate"`
}

// TodoItem is a checklist entry inside a note.
type TodoItem struct {
	ID        string    `json:"_id" bson:"_id"`
	Text      string    `json:"text" bson:"text" validate:"required" message:"Todo item text is required"`
	Completed bool      `json:"completed" bson:"completed"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Note is a diary entry owned by exactly one user.
type Note struct {
	ID          string       `json:"_id" bson:"_id" gorm:"type:char(36);primaryKey"`
	UserID      string       `json:"user" bson:"user" gorm:"type:char(36);not null;index"`
	Title       string       `json:"title" bson:"title" gorm:"size:200;not null"`
	Description string       `json:"description" bson:"description" gorm:"type:text;not null"`
	Tags        []string     `json:"tags" bson:"tags" gorm:"type:text;serializer:json"`
	Attachments []Attachment `json:"attachments" bson:"attachments" gorm:"type:text;serializer:json"`
	Images      []Image      `json:"images" bson:"images" gorm:"type:text;serializer:json"`
	TodoItems   []TodoItem   `json:"todoItems" bson:"todoItems" gorm:"type:text;serializer:json"`
	CreatedAt   time.Time    `json:"date" bson:"date" gorm:"index"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Tag returns the tags as the legacy comma-separated string.
func (n Note) Tag() string {
	return JoinTags(n.Tags)
}

// Normalize replaces nil collections with empty ones so they encode as [].
func (n *Note) Normalize() {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Attachments == nil {
		n.Attachments = []Attachment{}
	}
	if n.Images == nil {
		n.Images = []Image{}
	}
	if n.TodoItems == nil {
		n.TodoItems = []TodoItem{}
	}
}

// MarshalJSON adds the derived "tag" field for clients that still read a single string.
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	n.Normalize()
	return json.Marshal(struct {
		plain
		Tag string `json:"tag"`
	}{plain: plain(n), Tag: n.Tag()})
}

// NoteStats aggregates counters over a user's notes.
type NoteStats struct {
	TotalNotes           int            `json:"totalNotes"`
	TotalWords           int            `json:"totalWords"`
	TotalCharacters      int            `json:"totalCharacters"`
	TotalTodos           int            `json:"totalTodos"`
	CompletedTodos       int            `json:"completedTodos"`
	NotesWithImages      int            `json:"notesWithImages"`
	NotesWithAttachments int            `json:"notesWithAttachments"`
	TagCount             map[string]int `json:"tagCount"`
}
