package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diarydesk/internal/auth"
	"diarydesk/internal/config"
	"diarydesk/internal/db"
	"diarydesk/internal/repository"
	"diarydesk/internal/service"
)

func newNoteService(t *testing.T) service.NoteService {
	t.Helper()
	gdb, err := db.NewSQLite(":memory:")
	require.NoError(t, err)
	store, err := repository.NewGormStore(gdb, config.DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return service.NewNoteService(store.Notes)
}

func call(t *testing.T, ctx context.Context, h server.ToolHandlerFunc, args map[string]interface{}) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestTools_RequireUser(t *testing.T) {
	svc := newNoteService(t)
	handlers := map[string]server.ToolHandlerFunc{
		"list_notes":     handleListNotes(svc),
		"search_notes":   handleSearchNotes(svc),
		"get_note_stats": handleStats(svc),
		"list_tags":      handleListTags(svc),
		"create_note":    handleCreateNote(svc),
		"render_note":    handleRenderNote(svc),
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			text, isErr := call(t, context.Background(), h, nil)
			assert.True(t, isErr)
			assert.Equal(t, "authentication required", text)
		})
	}
}

func TestTools_CreateListSearch(t *testing.T) {
	svc := newNoteService(t)
	alice := auth.WithUserID(context.Background(), "alice")
	bob := auth.WithUserID(context.Background(), "bob")

	text, isErr := call(t, alice, handleCreateNote(svc), map[string]interface{}{
		"title":       "Trip plan",
		"description": "Book **trains** to Lyon",
		"tags":        "travel, france",
	})
	require.False(t, isErr, text)
	var created NoteResult
	require.NoError(t, json.Unmarshal([]byte(text), &created))
	assert.Equal(t, []string{"travel", "france"}, created.Tags)

	text, isErr = call(t, alice, handleCreateNote(svc), map[string]interface{}{
		"title":       "ab",
		"description": "too short title",
	})
	assert.True(t, isErr)
	assert.Equal(t, "Title must be between 3 and 200 characters", text)

	text, _ = call(t, alice, handleListNotes(svc), nil)
	var listed []NoteResult
	require.NoError(t, json.Unmarshal([]byte(text), &listed))
	assert.Len(t, listed, 1)

	text, _ = call(t, bob, handleListNotes(svc), nil)
	require.NoError(t, json.Unmarshal([]byte(text), &listed))
	assert.Empty(t, listed)

	text, _ = call(t, alice, handleSearchNotes(svc), map[string]interface{}{"query": "LYON"})
	require.NoError(t, json.Unmarshal([]byte(text), &listed))
	assert.Len(t, listed, 1)

	text, _ = call(t, alice, handleListTags(svc), nil)
	var tags []string
	require.NoError(t, json.Unmarshal([]byte(text), &tags))
	assert.ElementsMatch(t, []string{"travel", "france"}, tags)

	text, isErr = call(t, alice, handleRenderNote(svc), map[string]interface{}{"id": created.ID})
	require.False(t, isErr, text)
	assert.Contains(t, text, "<strong>trains</strong>")

	_, isErr = call(t, bob, handleRenderNote(svc), map[string]interface{}{"id": created.ID})
	assert.True(t, isErr)
}

func TestTools_Stats(t *testing.T) {
	svc := newNoteService(t)
	ctx := auth.WithUserID(context.Background(), "carol")

	_, err := svc.Create(ctx, "carol", service.NoteInput{Title: "One", Description: "two words", Tags: []string{"x"}})
	require.NoError(t, err)

	text, isErr := call(t, ctx, handleStats(svc), nil)
	require.False(t, isErr, text)

	var stats struct {
		TotalNotes int            `json:"totalNotes"`
		TagCount   map[string]int `json:"tagCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &stats))
	assert.Equal(t, 1, stats.TotalNotes)
	assert.Equal(t, 1, stats.TagCount["x"])
}

func TestNewServer_HTTPHandler(t *testing.T) {
	h := NewHTTPHandler(NewServer(newNoteService(t)))
	assert.NotNil(t, h)
}
