package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"diarydesk/internal/model"
	"diarydesk/internal/repository"
	"diarydesk/internal/service"
)

// NoteHandler serves the notes API. Every route requires a token.
type NoteHandler struct {
	svc service.NoteService
}

// NewNoteHandler creates a note handler.
func NewNoteHandler(svc service.NoteService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

// NoteRequest is the body of addnote and updatenote. Tags may be sent as an
// array in "tags" or as the comma-separated "tag" string.
type NoteRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Tag         *string             `json:"tag"`
	Tags        []string            `json:"tags"`
	Attachments *[]model.Attachment `json:"attachments"`
	Images      *[]model.Image      `json:"images"`
	TodoItems   *[]model.TodoItem   `json:"todoItems"`
}

func (r *NoteRequest) tags() []string {
	if r.Tags != nil {
		return model.NormalizeTags(r.Tags)
	}
	if r.Tag != nil {
		return model.ParseTags(*r.Tag)
	}
	return nil
}

// BulkDeleteRequest lists the notes to remove.
type BulkDeleteRequest struct {
	NoteIDs []string `json:"noteIds" validate:"required,min=1" message:"Invalid note IDs provided"`
}

// SearchParams are the query parameters of the search endpoint.
type SearchParams struct {
	Q      string `query:"q"`
	Tag    string `query:"tag"`
	SortBy string `query:"sortBy"`
}

// FetchAllNotes godoc
// @Summary List every note of the user, newest first
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} NotesResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /notes/fetchallnotes [get]
func (h *NoteHandler) FetchAllNotes(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	notes, err := h.svc.List(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NotesResponse{Success: true, Notes: notes})
}

// AddNote godoc
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body NoteRequest true "Note"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /notes/addnote [post]
func (h *NoteHandler) AddNote(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	in := service.NoteInput{Tags: req.tags()}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Attachments != nil {
		in.Attachments = *req.Attachments
	}
	if req.Images != nil {
		in.Images = *req.Images
	}
	if req.TodoItems != nil {
		in.TodoItems = *req.TodoItems
	}

	note, err := h.svc.Create(c.Request().Context(), owner, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NoteResponse{Success: true, Note: note})
}

// UpdateNote godoc
// @Summary Update the supplied fields of a note
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Param request body NoteRequest true "Fields to change"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/updatenote/{id} [put]
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	note, err := h.svc.Update(c.Request().Context(), owner, c.Param("id"), service.NotePatch{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.tags(),
		Attachments: req.Attachments,
		Images:      req.Images,
		TodoItems:   req.TodoItems,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NoteResponse{Success: true, Note: note})
}

// DeleteNote godoc
// @Summary Delete a note
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/deletenote/{id} [delete]
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	note, err := h.svc.Delete(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NoteResponse{Success: true, Message: "Note has been deleted", Note: note})
}

// Search godoc
// @Summary Search notes
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Param q query string false "Substring matched against title, description and tags"
// @Param tag query string false "Exact tag"
// @Param sortBy query string false "dateCreated, dateModified, alphabetical or alphabeticalDesc"
// @Success 200 {object} NotesResponse
// @Router /notes/search [get]
func (h *NoteHandler) Search(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var params SearchParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	notes, err := h.svc.Search(c.Request().Context(), owner, repository.NoteQuery{
		Query: params.Q,
		Tag:   params.Tag,
		Sort:  repository.ParseSortKey(params.SortBy),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NotesResponse{Success: true, Notes: notes})
}

// Stats godoc
// @Summary Aggregate counters over the user's notes
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StatsResponse
// @Router /notes/stats [get]
func (h *NoteHandler) Stats(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.Stats(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

// Tags godoc
// @Summary Sorted list of distinct tags
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} TagsResponse
// @Router /notes/tags [get]
func (h *NoteHandler) Tags(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	tags, err := h.svc.Tags(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TagsResponse{Success: true, Tags: tags})
}

// Duplicate godoc
// @Summary Copy a note
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/duplicate/{id} [post]
func (h *NoteHandler) Duplicate(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	note, err := h.svc.Duplicate(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NoteResponse{Success: true, Note: note})
}

// BulkDelete godoc
// @Summary Delete several notes
// @Tags notes
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body BulkDeleteRequest true "Note IDs"
// @Success 200 {object} BulkDeleteResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /notes/bulk-delete [delete]
func (h *NoteHandler) BulkDelete(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid note IDs provided")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	n, err := h.svc.BulkDelete(c.Request().Context(), owner, req.NoteIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BulkDeleteResponse{
		Success:      true,
		Message:      fmt.Sprintf("%d notes deleted successfully", n),
		DeletedCount: n,
	})
}

// Export godoc
// @Summary Download every note as JSON or CSV
// @Tags notes
// @Produce json
// @Produce text/csv
// @Security ApiKeyAuth
// @Param format query string false "json (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} errors.ErrorResponse
// @Router /notes/export [get]
func (h *NoteHandler) Export(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Export(c.Request().Context(), owner, c.QueryParam("format"))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", out.Filename))
	return c.Blob(http.StatusOK, out.ContentType, out.Body)
}

// ToggleTodo godoc
// @Summary Flip the completed flag of a todo item
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Param todoId path string true "Todo item ID"
// @Success 200 {object} NoteResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/{id}/todos/{todoId}/toggle [put]
func (h *NoteHandler) ToggleTodo(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	note, err := h.svc.ToggleTodo(c.Request().Context(), owner, c.Param("id"), c.Param("todoId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NoteResponse{Success: true, Note: note})
}

// Render godoc
// @Summary Render a note's markdown description to HTML
// @Tags notes
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Note ID"
// @Success 200 {object} RenderResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notes/render/{id} [get]
func (h *NoteHandler) Render(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	html, err := h.svc.Render(c.Request().Context(), owner, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RenderResponse{Success: true, HTML: html})
}
