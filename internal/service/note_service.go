package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/model"
	"diarydesk/internal/repository"
)

// NoteInput is the content of a new note. Tags are already split.
type NoteInput struct {
	Title       string
	Description string
	Tags        []string
	Attachments []model.Attachment
	Images      []model.Image
	TodoItems   []model.TodoItem
}

// NotePatch is a partial note update. Nil fields and blank strings are ignored.
type NotePatch struct {
	Title       *string
	Description *string
	Tags        []string
	Attachments *[]model.Attachment
	Images      *[]model.Image
	TodoItems   *[]model.TodoItem
}

// NoteService exposes owner-scoped note operations.
type NoteService interface {
	List(ctx context.Context, owner string) ([]model.Note, error)
	Create(ctx context.Context, owner string, in NoteInput) (*model.Note, error)
	Update(ctx context.Context, owner, id string, patch NotePatch) (*model.Note, error)
	Delete(ctx context.Context, owner, id string) (*model.Note, error)
	BulkDelete(ctx context.Context, owner string, ids []string) (int64, error)
	Duplicate(ctx context.Context, owner, id string) (*model.Note, error)
	Search(ctx context.Context, owner string, q repository.NoteQuery) ([]model.Note, error)
	Stats(ctx context.Context, owner string) (*model.NoteStats, error)
	Tags(ctx context.Context, owner string) ([]string, error)
	Export(ctx context.Context, owner, format string) (*Export, error)
	ToggleTodo(ctx context.Context, owner, noteID, todoID string) (*model.Note, error)
	Render(ctx context.Context, owner, id string) (string, error)
}

type noteService struct {
	notes repository.NoteRepository
	md    goldmark.Markdown
	now   func() time.Time
}

// NewNoteService builds a NoteService over repo.
func NewNoteService(repo repository.NoteRepository) NoteService {
	return &noteService{
		notes: repo,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:   time.Now,
	}
}

type noteFields struct {
	Title       string           `json:"title" validate:"min=3,max=200" message:"Title must be between 3 and 200 characters"`
	Description string           `json:"description" validate:"min=5,max=10000" message:"Description must be between 5 and 10000 characters"`
	Tags        []string         `json:"tags" validate:"dive,max=100" message:"Tag cannot exceed 100 characters"`
	TodoItems   []model.TodoItem `json:"todoItems" validate:"dive"`
}

type todoFields struct {
	TodoItems []model.TodoItem `json:"todoItems" validate:"dive"`
}

func (s *noteService) List(ctx context.Context, owner string) ([]model.Note, error) {
	return s.Search(ctx, owner, repository.NoteQuery{})
}

func (s *noteService) Create(ctx context.Context, owner string, in NoteInput) (*model.Note, error) {
	now := s.now().UTC()
	fields := noteFields{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Tags:        model.NormalizeTags(in.Tags),
		TodoItems:   stampTodos(in.TodoItems, now, false),
	}
	if len(fields.Tags) == 0 {
		fields.Tags = []string{model.DefaultTag}
	}
	if err := validate.Validate(&fields); err != nil {
		return nil, err
	}

	note := &model.Note{
		ID:          uuid.NewString(),
		UserID:      owner,
		Title:       fields.Title,
		Description: fields.Description,
		Tags:        fields.Tags,
		Attachments: stampAttachments(in.Attachments, now),
		Images:      stampImages(in.Images, now),
		TodoItems:   fields.TodoItems,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	note.Normalize()

	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *noteService) Update(ctx context.Context, owner, id string, patch NotePatch) (*model.Note, error) {
	upd := repository.NoteUpdate{UpdatedAt: s.now().UTC()}

	if patch.Title != nil {
		if title := strings.TrimSpace(*patch.Title); title != "" {
			if err := checkLength("title", title, 3, 200, "Title must be between 3 and 200 characters"); err != nil {
				return nil, err
			}
			upd.Title = &title
		}
	}
	if patch.Description != nil {
		if desc := strings.TrimSpace(*patch.Description); desc != "" {
			if err := checkLength("description", desc, 5, 10000, "Description must be between 5 and 10000 characters"); err != nil {
				return nil, err
			}
			upd.Description = &desc
		}
	}
	if tags := model.NormalizeTags(patch.Tags); len(tags) > 0 {
		for _, t := range tags {
			if err := checkLength("tag", t, 1, model.MaxTagLength, "Tag cannot exceed 100 characters"); err != nil {
				return nil, err
			}
		}
		upd.Tags = &tags
	}
	if patch.Attachments != nil {
		attachments := stampAttachments(*patch.Attachments, upd.UpdatedAt)
		upd.Attachments = &attachments
	}
	if patch.Images != nil {
		images := stampImages(*patch.Images, upd.UpdatedAt)
		upd.Images = &images
	}
	if patch.TodoItems != nil {
		fields := todoFields{TodoItems: stampTodos(*patch.TodoItems, upd.UpdatedAt, false)}
		if err := validate.Validate(&fields); err != nil {
			return nil, err
		}
		upd.TodoItems = &fields.TodoItems
	}

	note, err := s.notes.Update(ctx, owner, id, upd)
	if err != nil {
		return nil, noteError(err, "update")
	}
	return note, nil
}

func (s *noteService) Delete(ctx context.Context, owner, id string) (*model.Note, error) {
	note, err := s.notes.Delete(ctx, owner, id)
	if err != nil {
		return nil, noteError(err, "delete")
	}
	return note, nil
}

func (s *noteService) BulkDelete(ctx context.Context, owner string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.NewValidationError("noteIds", "Invalid note IDs provided")
	}
	n, err := s.notes.DeleteMany(ctx, owner, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	return n, nil
}

func (s *noteService) Duplicate(ctx context.Context, owner, id string) (*model.Note, error) {
	orig, err := s.notes.FindByOwner(ctx, owner, id)
	if err != nil {
		return nil, noteError(err, "duplicate")
	}

	now := s.now().UTC()
	dup := &model.Note{
		ID:          uuid.NewString(),
		UserID:      owner,
		Title:       orig.Title + " (Copy)",
		Description: orig.Description,
		Tags:        append([]string(nil), orig.Tags...),
		Attachments: append([]model.Attachment(nil), orig.Attachments...),
		Images:      append([]model.Image(nil), orig.Images...),
		TodoItems:   stampTodos(orig.TodoItems, now, true),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	dup.Normalize()

	if err := s.notes.Create(ctx, dup); err != nil {
		return nil, fmt.Errorf("duplicate note: %w", err)
	}
	return dup, nil
}

func (s *noteService) Search(ctx context.Context, owner string, q repository.NoteQuery) ([]model.Note, error) {
	notes, err := s.notes.List(ctx, owner, q)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}
	return notes, nil
}

func (s *noteService) Stats(ctx context.Context, owner string) (*model.NoteStats, error) {
	notes, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return ComputeStats(notes), nil
}

// ComputeStats aggregates word, character, todo and tag counters over notes.
func ComputeStats(notes []model.Note) *model.NoteStats {
	stats := &model.NoteStats{
		TotalNotes: len(notes),
		TagCount:   map[string]int{},
	}
	for i := range notes {
		n := &notes[i]
		text := strings.TrimSpace(n.Title + " " + n.Description)
		stats.TotalWords += len(strings.Fields(text))
		stats.TotalCharacters += utf8.RuneCountInString(text)

		stats.TotalTodos += len(n.TodoItems)
		for _, todo := range n.TodoItems {
			if todo.Completed {
				stats.CompletedTodos++
			}
		}
		if len(n.Images) > 0 {
			stats.NotesWithImages++
		}
		if len(n.Attachments) > 0 {
			stats.NotesWithAttachments++
		}
		for _, tag := range model.NormalizeTags(n.Tags) {
			stats.TagCount[tag]++
		}
	}
	return stats
}

func (s *noteService) Tags(ctx context.Context, owner string) ([]string, error) {
	notes, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return UniqueTags(notes), nil
}

// UniqueTags returns every tag used across notes, de-duplicated and sorted.
func UniqueTags(notes []model.Note) []string {
	set := make(map[string]struct{})
	for i := range notes {
		for _, tag := range notes[i].Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				set[tag] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (s *noteService) ToggleTodo(ctx context.Context, owner, noteID, todoID string) (*model.Note, error) {
	note, err := s.notes.FindByOwner(ctx, owner, noteID)
	if err != nil {
		return nil, noteError(err, "update")
	}

	todos := append([]model.TodoItem(nil), note.TodoItems...)
	found := false
	for i := range todos {
		if todos[i].ID == todoID {
			todos[i].Completed = !todos[i].Completed
			found = true
			break
		}
	}
	if !found {
		return nil, apperrors.ErrTodoNotFound
	}

	updated, err := s.notes.Update(ctx, owner, noteID, repository.NoteUpdate{
		TodoItems: &todos,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, noteError(err, "update")
	}
	return updated, nil
}

func (s *noteService) Render(ctx context.Context, owner, id string) (string, error) {
	note, err := s.notes.FindByOwner(ctx, owner, id)
	if err != nil {
		return "", noteError(err, "access")
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(note.Description), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func checkLength(field, value string, lo, hi int, msg string) error {
	if n := utf8.RuneCountInString(value); n < lo || n > hi {
		return apperrors.NewValidationError(field, msg)
	}
	return nil
}

func noteError(err error, action string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NoteNotFound(action)
	}
	return err
}

func stampAttachments(in []model.Attachment, now time.Time) []model.Attachment {
	out := make([]model.Attachment, len(in))
	for i, a := range in {
		if a.UploadDate.IsZero() {
			a.UploadDate = now
		}
		out[i] = a
	}
	return out
}

func stampImages(in []model.Image, now time.Time) []model.Image {
	out := make([]model.Image, len(in))
	for i, img := range in {
		if img.UploadDate.IsZero() {
			img.UploadDate = now
		}
		out[i] = img
	}
	return out
}

// stampTodos assigns ids and creation times to todo items. With fresh set,
// every item gets a new id.
func stampTodos(in []model.TodoItem, now time.Time, fresh bool) []model.TodoItem {
	out := make([]model.TodoItem, len(in))
	for i, todo := range in {
		todo.Text = strings.TrimSpace(todo.Text)
		if fresh || todo.ID == "" {
			todo.ID = uuid.NewString()
		}
		if todo.CreatedAt.IsZero() {
			todo.CreatedAt = now
		}
		out[i] = todo
	}
	return out
}
