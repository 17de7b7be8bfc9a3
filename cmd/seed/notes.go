package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"

	"diarydesk/internal/model"
	"diarydesk/internal/service"
)

// SeedNote is the seed file format.
type SeedNote struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Todos       []string `json:"todos"`
}

var builtinNotes = []SeedNote{
	{
		Title:       "Welcome to Diary Desk",
		Description: "Notes support **markdown**, tags and checklists.\n\n- Search from the top bar\n- Export as JSON or CSV",
		Tags:        []string{"General"},
	},
	{
		Title:       "Grocery List",
		Description: "Buy milk and eggs",
		Tags:        []string{"errands"},
		Todos:       []string{"Milk", "Eggs", "Coffee"},
	},
	{
		Title:       "Weekly review",
		Description: "What went well, what to change, what to try next week.",
		Tags:        []string{"work", "planning"},
	},
}

// loadNotes reads seed notes from an http(s) URL, a local JSON file, or the
// built-in set when source is empty.
func loadNotes(ctx context.Context, source string) ([]SeedNote, error) {
	switch {
	case source == "":
		return builtinNotes, nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return fetchNotes(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		var notes []SeedNote
		if err := json.Unmarshal(data, &notes); err != nil {
			return nil, fmt.Errorf("parse seed file: %w", err)
		}
		return notes, nil
	}
}

func fetchNotes(ctx context.Context, url string) ([]SeedNote, error) {
	var notes []SeedNote
	resp, err := resty.New().R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&notes).
		ForceContentType("application/json").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch seed notes: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode())
	}
	return notes, nil
}

// seedNotes creates every note whose title the owner does not have yet.
func seedNotes(ctx context.Context, svc service.NoteService, owner string, notes []SeedNote) (created, skipped int, err error) {
	existing, err := svc.List(ctx, owner)
	if err != nil {
		return 0, 0, fmt.Errorf("list existing notes: %w", err)
	}
	titles := make(map[string]struct{}, len(existing))
	for _, n := range existing {
		titles[n.Title] = struct{}{}
	}

	for _, sn := range notes {
		if _, ok := titles[strings.TrimSpace(sn.Title)]; ok {
			skipped++
			continue
		}

		todos := make([]model.TodoItem, 0, len(sn.Todos))
		for _, text := range sn.Todos {
			todos = append(todos, model.TodoItem{Text: text})
		}

		note, err := svc.Create(ctx, owner, service.NoteInput{
			Title:       sn.Title,
			Description: sn.Description,
			Tags:        sn.Tags,
			TodoItems:   todos,
		})
		if err != nil {
			return created, skipped, fmt.Errorf("create note %q: %w", sn.Title, err)
		}
		titles[note.Title] = struct{}{}
		created++
	}
	return created, skipped, nil
}
