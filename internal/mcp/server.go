package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"diarydesk/internal/auth"
	"diarydesk/internal/model"
	"diarydesk/internal/repository"
	"diarydesk/internal/service"
)

const maxListLimit = 200

// NewServer creates an MCP server exposing the caller's notes as tools.
// Every tool reads the owner from the request context.
func NewServer(svc service.NoteService) *server.MCPServer {
	s := server.NewMCPServer(
		"Diary Desk",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List your notes, newest first."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to return (default: 50, max: 200)"),
			),
		),
		handleListNotes(svc),
	)

	s.AddTool(
		mcp.NewTool("search_notes",
			mcp.WithDescription("Search notes by text in title, description or tags, optionally filtered by an exact tag."),
			mcp.WithString("query",
				mcp.Description("Case-insensitive text to look for"),
			),
			mcp.WithString("tag",
				mcp.Description("Optional: only notes carrying this tag"),
			),
			mcp.WithString("sortBy",
				mcp.Description("dateCreated (default), dateModified, alphabetical or alphabeticalDesc"),
			),
		),
		handleSearchNotes(svc),
	)

	s.AddTool(
		mcp.NewTool("get_note_stats",
			mcp.WithDescription("Word, character, todo and tag counts over all your notes."),
		),
		handleStats(svc),
	)

	s.AddTool(
		mcp.NewTool("list_tags",
			mcp.WithDescription("List the distinct tags used across your notes."),
		),
		handleListTags(svc),
	)

	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a new note."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Between 3 and 200 characters"),
			),
			mcp.WithString("description",
				mcp.Required(),
				mcp.Description("Markdown body, between 5 and 10000 characters"),
			),
			mcp.WithString("tags",
				mcp.Description("Optional: comma separated tags"),
			),
		),
		handleCreateNote(svc),
	)

	s.AddTool(
		mcp.NewTool("render_note",
			mcp.WithDescription("Render a note's markdown description as HTML."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID"),
			),
		),
		handleRenderNote(svc),
	)

	return s
}

// NewHTTPHandler serves s over streamable HTTP. The authenticated user id
// placed on the request by the router is carried into tool calls.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id, ok := auth.UserIDFromContext(r.Context()); ok {
				return auth.WithUserID(ctx, id)
			}
			return ctx
		}),
	)
}

// NoteResult is the note shape returned by tools.
type NoteResult struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Todos       int       `json:"todos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func handleListNotes(svc service.NoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, ok := auth.UserIDFromContext(ctx)
		if !ok {
			return unauthenticated(), nil
		}

		notes, err := svc.List(ctx, owner)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}

		limit := req.GetInt("limit", 50)
		if limit <= 0 || limit > maxListLimit {
			limit = maxListLimit
		}
		if len(notes) > limit {
			notes = notes[:limit]
		}
		return jsonResult(notesToResults(notes))
	}
}

func handleSearchNotes(svc service.NoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, ok := auth.UserIDFromContext(ctx)
		if !ok {
			return unauthenticated(), nil
		}

		notes, err := svc.Search(ctx, owner, repository.NoteQuery{
			Query: req.GetString("query", ""),
			Tag:   req.GetString("tag", ""),
			Sort:  repository.ParseSortKey(req.GetString("sortBy", "")),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to search notes: %v", err)), nil
		}
		return jsonResult(notesToResults(notes))
	}
}

func handleStats(svc service.NoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, ok := auth.UserIDFromContext(ctx)
		if !ok {
			return unauthenticated(), nil
		}

		stats, err := svc.Stats(ctx, owner)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to compute stats: %v", err)), nil
		}
		return jsonResult(stats)
	}
}

func handleListTags(svc service.NoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, ok := auth.UserIDFromContext(ctx)
		if !ok {
			return unauthenticated(), nil
		}

		tags, err := svc.Tags(ctx, owner)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
		}
		return jsonResult(tags)
	}
}

func handleCreateNote(svc service.NoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, ok := auth.UserIDFromContext(ctx)
		if !ok {
			return unauthenticated(), nil
		}

		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}
		description, err := req.RequireString("description")
		if err != nil {
			return mcp.NewToolResultError("description is required"), nil
		}

		note, err := svc.Create(ctx, owner, service.NoteInput{
			Title:       title,
			Description: description,
			Tags:        model.ParseTags(req.GetString("tags", "")),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(toResult(note))
	}
}

func handleRenderNote(svc service.NoteService) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, ok := auth.UserIDFromContext(ctx)
		if !ok {
			return unauthenticated(), nil
		}

		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		html, err := svc.Render(ctx, owner, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(html), nil
	}
}

func unauthenticated() *mcp.CallToolResult {
	return mcp.NewToolResultError("authentication required")
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toResult(n *model.Note) NoteResult {
	return NoteResult{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		Tags:        n.Tags,
		Todos:       len(n.TodoItems),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func notesToResults(notes []model.Note) []NoteResult {
	results := make([]NoteResult, len(notes))
	for i := range notes {
		results[i] = toResult(&notes[i])
	}
	return results
}
