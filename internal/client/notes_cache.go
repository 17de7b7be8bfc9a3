package client

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"diarydesk/internal/model"
)

// NotesCache mirrors the logged-in user's notes. Mutations hit the server
// first and touch the local copy only after the server accepted them. An
// unauthorized response clears the cache and the session token.
type NotesCache struct {
	api     *API
	session *Session

	mu    sync.RWMutex
	notes []model.Note
}

func NewNotesCache(api *API, session *Session) *NotesCache {
	return &NotesCache{api: api, session: session}
}

// Notes returns a copy of the cached notes.
func (c *NotesCache) Notes() []model.Note {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Note, len(c.notes))
	copy(out, c.notes)
	return out
}

// Load replaces the cache with the server's list.
func (c *NotesCache) Load(ctx context.Context) error {
	if !c.session.LoggedIn() {
		return ErrNotLoggedIn
	}
	notes, err := c.api.FetchNotes(ctx)
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.notes = notes
	c.mu.Unlock()
	return nil
}

// Add creates a note and appends it.
func (c *NotesCache) Add(ctx context.Context, draft NoteDraft) (*model.Note, error) {
	note, err := c.api.AddNote(ctx, draft)
	if err != nil {
		return nil, c.fail(err)
	}

	c.mu.Lock()
	c.notes = append(c.notes, *note)
	c.mu.Unlock()
	return note, nil
}

// Edit updates a note and merges the server's copy into the cached entry.
func (c *NotesCache) Edit(ctx context.Context, id string, draft NoteDraft) (*model.Note, error) {
	note, err := c.api.UpdateNote(ctx, id, draft)
	if err != nil {
		return nil, c.fail(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID == id {
			c.notes[i].Title = note.Title
			c.notes[i].Description = note.Description
			c.notes[i].Tags = note.Tags
			c.notes[i].Attachments = note.Attachments
			c.notes[i].Images = note.Images
			c.notes[i].TodoItems = note.TodoItems
			c.notes[i].UpdatedAt = note.UpdatedAt
			break
		}
	}
	return note, nil
}

// Delete removes a note on the server, then locally.
func (c *NotesCache) Delete(ctx context.Context, id string) error {
	if _, err := c.api.DeleteNote(ctx, id); err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.notes[:0]
	for _, n := range c.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	c.notes = kept
	return nil
}

// Clear empties the cache.
func (c *NotesCache) Clear() {
	c.mu.Lock()
	c.notes = nil
	c.mu.Unlock()
}

// Filter returns cached notes whose title, description or tags contain
// query, ignoring case.
func (c *NotesCache) Filter(query string) []model.Note {
	q := strings.ToLower(strings.TrimSpace(query))

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []model.Note
	for _, n := range c.notes {
		if q == "" || containsFold(n, q) {
			out = append(out, n)
		}
	}
	return out
}

// TagCounts counts how many cached notes carry each tag.
func (c *NotesCache) TagCounts() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := make(map[string]int)
	for _, n := range c.notes {
		for _, t := range n.Tags {
			counts[t]++
		}
	}
	return counts
}

// Tags lists the distinct cached tags in order.
func (c *NotesCache) Tags() []string {
	counts := c.TagCounts()
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func (c *NotesCache) fail(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		c.Clear()
		_ = c.session.Discard()
	}
	return err
}

func containsFold(n model.Note, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Description), q) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
