package service

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/model"
	"diarydesk/internal/repository"
)

func TestNoteService_CreateAndList(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", NoteInput{
		Title:       "  Grocery List ",
		Description: "Buy milk and eggs",
		Tags:        model.ParseTags("errands, home,errands"),
		TodoItems:   []model.TodoItem{{Text: " milk "}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Grocery List", created.Title)
	assert.Equal(t, []string{"errands", "home"}, created.Tags)
	require.Len(t, created.TodoItems, 1)
	assert.NotEmpty(t, created.TodoItems[0].ID)
	assert.Equal(t, "milk", created.TodoItems[0].Text)

	notes, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, created.Title, notes[0].Title)
	assert.Equal(t, created.Description, notes[0].Description)
	assert.Equal(t, created.Tags, notes[0].Tags)

	others, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, others)
	assert.Empty(t, others)
}

func TestNoteService_CreateValidation(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      NoteInput
		wantMsg string
	}{
		{
			name:    "short title",
			in:      NoteInput{Title: " ab ", Description: "long enough"},
			wantMsg: "Title must be between 3 and 200 characters",
		},
		{
			name:    "short description",
			in:      NoteInput{Title: "Title", Description: "abcd"},
			wantMsg: "Description must be between 5 and 10000 characters",
		},
		{
			name:    "long tag",
			in:      NoteInput{Title: "Title", Description: "long enough", Tags: []string{strings.Repeat("x", 101)}},
			wantMsg: "Tag cannot exceed 100 characters",
		},
		{
			name:    "blank todo",
			in:      NoteInput{Title: "Title", Description: "long enough", TodoItems: []model.TodoItem{{Text: "   "}}},
			wantMsg: "Todo item text is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := svc.Create(ctx, "alice", tt.in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Nil(t, note)
		})
	}

	created, err := svc.Create(ctx, "alice", NoteInput{Title: "Untagged", Description: "no tags given"})
	require.NoError(t, err)
	assert.Equal(t, []string{model.DefaultTag}, created.Tags)
}

func TestNoteService_UpdateIgnoresBlankFields(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	note, err := svc.Create(ctx, "alice", NoteInput{Title: "Original", Description: "original body", Tags: []string{"a"}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "alice", note.ID, NotePatch{
		Title:       ptr("  "),
		Description: ptr("new body text"),
		Tags:        []string{" ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "Original", updated.Title)
	assert.Equal(t, "new body text", updated.Description)
	assert.Equal(t, []string{"a"}, updated.Tags)
	assert.False(t, updated.UpdatedAt.Before(note.UpdatedAt))

	_, err = svc.Update(ctx, "alice", note.ID, NotePatch{Title: ptr("ab")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNoteService_SearchByDateModified(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes).(*noteService)
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	var first *model.Note
	for _, title := range []string{"Morning pages", "Lunch plans", "Evening recap"} {
		n, err := svc.Create(ctx, "alice", NoteInput{Title: title, Description: "notes for " + title})
		require.NoError(t, err)
		if first == nil {
			first = n
		}
		clock = clock.Add(time.Hour)
	}

	clock = clock.Add(24 * time.Hour)
	_, err := svc.Update(ctx, "alice", first.ID, NotePatch{Description: ptr("rewritten the next day")})
	require.NoError(t, err)

	notes, err := svc.Search(ctx, "alice", repository.NoteQuery{Sort: repository.SortDateModified})
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "Morning pages", notes[0].Title)
	assert.Equal(t, "Evening recap", notes[1].Title)

	notes, err = svc.Search(ctx, "alice", repository.NoteQuery{Sort: repository.SortDateCreated})
	require.NoError(t, err)
	assert.Equal(t, "Evening recap", notes[0].Title)
}

func TestNoteService_ForeignNotesAreNotFound(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	bobs, err := svc.Create(ctx, "bob", NoteInput{Title: "Bob's note", Description: "private stuff"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "alice", bobs.ID, NotePatch{Title: ptr("Hijacked")})
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)
	assert.Equal(t, "Note not found or you don't have permission to update it", err.Error())

	_, err = svc.Delete(ctx, "alice", bobs.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)

	_, err = svc.Duplicate(ctx, "alice", bobs.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)

	_, err = svc.Delete(ctx, "alice", "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)

	notes, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Bob's note", notes[0].Title)
}

func TestNoteService_Duplicate(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	orig, err := svc.Create(ctx, "alice", NoteInput{
		Title:       "Trip",
		Description: "pack bags",
		Tags:        []string{"travel"},
		TodoItems:   []model.TodoItem{{Text: "passport", Completed: true}},
	})
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, "alice", orig.ID)
	require.NoError(t, err)
	assert.NotEqual(t, orig.ID, dup.ID)
	assert.Equal(t, "Trip (Copy)", dup.Title)
	assert.Equal(t, orig.Description, dup.Description)
	assert.Equal(t, orig.Tags, dup.Tags)
	require.Len(t, dup.TodoItems, 1)
	assert.NotEqual(t, orig.TodoItems[0].ID, dup.TodoItems[0].ID)
	assert.True(t, dup.TodoItems[0].Completed)

	notes, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestNoteService_BulkDelete(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	_, err := svc.BulkDelete(ctx, "alice", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "Invalid note IDs provided", err.Error())
}

func TestNoteService_BulkDeleteOnlyOwned(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newSQLiteStore(t)
		svc := NewNoteService(store.Notes)
		ctx := context.Background()

		owners := rapid.SliceOfN(rapid.SampledFrom([]string{"alice", "bob"}), 1, 8).Draw(rt, "owners")
		var ids []string
		ownedByAlice := 0
		for i, owner := range owners {
			n, err := svc.Create(ctx, owner, NoteInput{Title: "note title", Description: "note body"})
			if err != nil {
				rt.Fatalf("create %d: %v", i, err)
			}
			if rapid.Bool().Draw(rt, "include") {
				ids = append(ids, n.ID)
				if owner == "alice" {
					ownedByAlice++
				}
			}
		}
		if len(ids) == 0 {
			return
		}

		bobBefore, _ := svc.List(ctx, "bob")
		deleted, err := svc.BulkDelete(ctx, "alice", ids)
		if err != nil {
			rt.Fatalf("bulk delete: %v", err)
		}
		if int(deleted) != ownedByAlice {
			rt.Fatalf("deleted %d, want %d", deleted, ownedByAlice)
		}
		bobAfter, _ := svc.List(ctx, "bob")
		if len(bobAfter) != len(bobBefore) {
			rt.Fatalf("bob lost notes: %d -> %d", len(bobBefore), len(bobAfter))
		}
	})
}

func TestUniqueTags_SortedAndDeduplicated(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tagGen := rapid.SampledFrom([]string{"work", "home", "Work", "errands", "ideas", " home "})
		notes := rapid.SliceOf(rapid.Custom(func(rt *rapid.T) model.Note {
			return model.Note{Tags: rapid.SliceOf(tagGen).Draw(rt, "tags")}
		})).Draw(rt, "notes")

		tags := UniqueTags(notes)
		if !sort.StringsAreSorted(tags) {
			rt.Fatalf("not sorted: %v", tags)
		}
		seen := map[string]bool{}
		for _, tag := range tags {
			if seen[tag] {
				rt.Fatalf("duplicate %q in %v", tag, tags)
			}
			seen[tag] = true
		}

		// order of notes must not matter
		reversed := make([]model.Note, len(notes))
		for i := range notes {
			reversed[len(notes)-1-i] = notes[i]
		}
		if again := UniqueTags(reversed); strings.Join(again, "|") != strings.Join(tags, "|") {
			rt.Fatalf("order dependent: %v vs %v", tags, again)
		}
	})
}

func TestNoteService_SearchStatsAndTags(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", NoteInput{
		Title:       "Work plan",
		Description: "finish the report",
		Tags:        []string{"work", "urgent"},
		TodoItems:   []model.TodoItem{{Text: "draft", Completed: true}, {Text: "review"}},
		Images:      []model.Image{{Filename: "a.png", URL: "http://x/a.png"}},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", NoteInput{
		Title:       "Home",
		Description: "fix the sink",
		Tags:        []string{"home", "urgent"},
		Attachments: []model.Attachment{{Filename: "manual.pdf", URL: "http://x/m.pdf", Size: 10}},
	})
	require.NoError(t, err)

	results, err := svc.Search(ctx, "alice", repository.NoteQuery{Query: "URGENT", Sort: repository.SortAlphabetical})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Home", results[0].Title)

	results, err = svc.Search(ctx, "alice", repository.NoteQuery{Tag: "work"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	stats, err := svc.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalNotes)
	// "Work plan finish the report" + "Home fix the sink"
	assert.Equal(t, 9, stats.TotalWords)
	assert.Equal(t, len("Work plan finish the report")+len("Home fix the sink"), stats.TotalCharacters)
	assert.Equal(t, 2, stats.TotalTodos)
	assert.Equal(t, 1, stats.CompletedTodos)
	assert.Equal(t, 1, stats.NotesWithImages)
	assert.Equal(t, 1, stats.NotesWithAttachments)
	assert.Equal(t, map[string]int{"work": 1, "urgent": 2, "home": 1}, stats.TagCount)

	tags, err := svc.Tags(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "urgent", "work"}, tags)
}

func TestNoteService_ToggleTodoAndRender(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes)
	ctx := context.Background()

	note, err := svc.Create(ctx, "alice", NoteInput{
		Title:       "Checklist",
		Description: "# Heading\n\n**bold** <script>alert(1)</script>",
		TodoItems:   []model.TodoItem{{Text: "one"}},
	})
	require.NoError(t, err)
	todoID := note.TodoItems[0].ID

	toggled, err := svc.ToggleTodo(ctx, "alice", note.ID, todoID)
	require.NoError(t, err)
	assert.True(t, toggled.TodoItems[0].Completed)

	toggled, err = svc.ToggleTodo(ctx, "alice", note.ID, todoID)
	require.NoError(t, err)
	assert.False(t, toggled.TodoItems[0].Completed)

	_, err = svc.ToggleTodo(ctx, "alice", note.ID, "nope")
	assert.ErrorIs(t, err, apperrors.ErrTodoNotFound)

	_, err = svc.ToggleTodo(ctx, "bob", note.ID, todoID)
	assert.ErrorIs(t, err, apperrors.ErrNoteNotFound)

	html, err := svc.Render(ctx, "alice", note.ID)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Heading</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>")
}

func TestNoteService_Export(t *testing.T) {
	store := newSQLiteStore(t)
	svc := NewNoteService(store.Notes).(*noteService)
	ctx := context.Background()

	fixed := time.Date(2024, 3, 5, 10, 30, 0, 123000000, time.UTC)
	svc.now = func() time.Time { return fixed }

	_, err := svc.Create(ctx, "alice", NoteInput{
		Title:       "Grocery List",
		Description: "Buy milk and eggs",
		Tags:        model.ParseTags("errands"),
	})
	require.NoError(t, err)

	out, err := svc.Export(ctx, "alice", ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Equal(t, "diary-desk-notes.csv", out.Filename)
	assert.Equal(t,
		"Title,Description,Tag,Created Date,Updated Date\n"+
			`"Grocery List","Buy milk and eggs","errands",2024-03-05T10:30:00.123Z,2024-03-05T10:30:00.123Z`,
		string(out.Body))

	out, err = svc.Export(ctx, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, "diary-desk-notes.json", out.Filename)
	assert.Contains(t, string(out.Body), `"tag":"errands"`)

	_, err = svc.Export(ctx, "alice", "xml")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestEncodeCSV_QuotesEmbeddedQuotes(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	body := EncodeCSV([]model.Note{
		{Title: `Say "hi"`, Description: "a,b\nc", Tags: []string{"x", "y"}, CreatedAt: at},
	})
	assert.Equal(t,
		"Title,Description,Tag,Created Date,Updated Date\n"+
			`"Say ""hi""","a,b`+"\n"+`c","x, y",2024-01-02T03:04:05.000Z,2024-01-02T03:04:05.000Z`,
		string(body))
	assert.Equal(t, csvHeader, string(EncodeCSV(nil)))
}
