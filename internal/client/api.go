package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"diarydesk/internal/model"
)

const tokenHeader = "auth-token"

// Config configures the HTTP client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Account is the user summary returned with a fresh token.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NoteDraft carries note fields for create and edit. Empty fields are left
// untouched by edits.
type NoteDraft struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	TodoItems   []model.TodoItem `json:"todoItems,omitempty"`
}

// ProfileChanges are the profile fields to update. Nil fields are left as they are.
type ProfileChanges struct {
	Name         *string            `json:"name,omitempty"`
	Bio          *string            `json:"bio,omitempty"`
	ProfileImage *string            `json:"profileImage,omitempty"`
	Preferences  *model.Preferences `json:"preferences,omitempty"`
}

type authResponse struct {
	AuthToken string  `json:"authtoken"`
	User      Account `json:"user"`
}

type userResponse struct {
	User *model.User `json:"user"`
}

type noteResponse struct {
	Note *model.Note `json:"note"`
}

type notesResponse struct {
	Notes []model.Note `json:"notes"`
}

// API is a thin typed wrapper over the REST endpoints. It sends whatever
// token the TokenStore holds.
type API struct {
	client *resty.Client
	tokens TokenStore
}

// NewAPI creates an API client.
func NewAPI(cfg Config, tokens TokenStore) *API {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &API{client: cli, tokens: tokens}
}

func (a *API) request(ctx context.Context) *resty.Request {
	r := a.client.R().SetContext(ctx)
	if token, err := a.tokens.Load(); err == nil && token != "" {
		r.SetHeader(tokenHeader, token)
	}
	return r
}

func (a *API) do(ctx context.Context, method, path string, body, out interface{}) error {
	r := a.request(ctx)
	if body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		r.SetResult(out)
	}

	resp, err := r.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return mapHTTPError(resp)
}

// Signup registers an account and returns its token.
func (a *API) Signup(ctx context.Context, name, email, password string) (string, *Account, error) {
	var out authResponse
	err := a.do(ctx, resty.MethodPost, "/api/auth/createuser", map[string]string{
		"name": name, "email": email, "password": password,
	}, &out)
	if err != nil {
		return "", nil, err
	}
	return out.AuthToken, &out.User, nil
}

// Login exchanges credentials for a token.
func (a *API) Login(ctx context.Context, email, password string) (string, *Account, error) {
	var out authResponse
	err := a.do(ctx, resty.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return "", nil, err
	}
	return out.AuthToken, &out.User, nil
}

// Logout revokes the current token on the server.
func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, resty.MethodPost, "/api/auth/logout", nil, nil)
}

func (a *API) GetUser(ctx context.Context) (*model.User, error) {
	var out userResponse
	if err := a.do(ctx, resty.MethodGet, "/api/auth/getuser", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *API) UpdateProfile(ctx context.Context, changes ProfileChanges) (*model.User, error) {
	var out userResponse
	if err := a.do(ctx, resty.MethodPut, "/api/auth/updateprofile", changes, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *API) ChangePassword(ctx context.Context, current, next string) error {
	return a.do(ctx, resty.MethodPut, "/api/auth/changepassword", map[string]string{
		"currentPassword": current, "newPassword": next,
	}, nil)
}

func (a *API) DeleteAccount(ctx context.Context) error {
	return a.do(ctx, resty.MethodDelete, "/api/auth/deleteaccount", nil, nil)
}

func (a *API) FetchNotes(ctx context.Context) ([]model.Note, error) {
	var out notesResponse
	if err := a.do(ctx, resty.MethodGet, "/api/notes/fetchallnotes", nil, &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

func (a *API) AddNote(ctx context.Context, draft NoteDraft) (*model.Note, error) {
	var out noteResponse
	if err := a.do(ctx, resty.MethodPost, "/api/notes/addnote", draft, &out); err != nil {
		return nil, err
	}
	return out.Note, nil
}

func (a *API) UpdateNote(ctx context.Context, id string, draft NoteDraft) (*model.Note, error) {
	var out noteResponse
	if err := a.do(ctx, resty.MethodPut, "/api/notes/updatenote/"+id, draft, &out); err != nil {
		return nil, err
	}
	return out.Note, nil
}

func (a *API) DeleteNote(ctx context.Context, id string) (*model.Note, error) {
	var out noteResponse
	if err := a.do(ctx, resty.MethodDelete, "/api/notes/deletenote/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Note, nil
}

// Search runs a server-side search. Empty arguments are omitted.
func (a *API) Search(ctx context.Context, query, tag, sortBy string) ([]model.Note, error) {
	params := map[string]string{}
	for k, v := range map[string]string{"q": query, "tag": tag, "sortBy": sortBy} {
		if v != "" {
			params[k] = v
		}
	}

	var out notesResponse
	resp, err := a.request(ctx).SetQueryParams(params).SetResult(&out).Get("/api/notes/search")
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

func (a *API) Stats(ctx context.Context) (*model.NoteStats, error) {
	var out struct {
		Stats *model.NoteStats `json:"stats"`
	}
	if err := a.do(ctx, resty.MethodGet, "/api/notes/stats", nil, &out); err != nil {
		return nil, err
	}
	return out.Stats, nil
}

func (a *API) Tags(ctx context.Context) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	if err := a.do(ctx, resty.MethodGet, "/api/notes/tags", nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

func (a *API) Duplicate(ctx context.Context, id string) (*model.Note, error) {
	var out noteResponse
	if err := a.do(ctx, resty.MethodPost, "/api/notes/duplicate/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out.Note, nil
}

// BulkDelete removes the listed notes and returns how many were deleted.
func (a *API) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	var out struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	if err := a.do(ctx, resty.MethodDelete, "/api/notes/bulk-delete", map[string][]string{"noteIds": ids}, &out); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

// Export downloads all notes as json or csv.
func (a *API) Export(ctx context.Context, format string) ([]byte, error) {
	resp, err := a.request(ctx).SetQueryParam("format", format).Get("/api/notes/export")
	if err != nil {
		return nil, fmt.Errorf("export notes: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (a *API) ToggleTodo(ctx context.Context, noteID, todoID string) (*model.Note, error) {
	var out noteResponse
	path := fmt.Sprintf("/api/notes/%s/todos/%s/toggle", noteID, todoID)
	if err := a.do(ctx, resty.MethodPut, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Note, nil
}

// Render returns the note description rendered as HTML.
func (a *API) Render(ctx context.Context, id string) (string, error) {
	var out struct {
		HTML string `json:"html"`
	}
	if err := a.do(ctx, resty.MethodGet, "/api/notes/render/"+id, nil, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}
