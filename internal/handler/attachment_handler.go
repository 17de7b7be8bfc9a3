package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/storage"
)

// AttachmentHandler accepts file uploads for notes.
type AttachmentHandler struct {
	store storage.BlobStore
}

// NewAttachmentHandler creates an upload handler. A nil store disables uploads.
func NewAttachmentHandler(store storage.BlobStore) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// Upload godoc
// @Summary Upload a file to attach to a note
// @Tags notes
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "File"
// @Success 200 {object} AttachmentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /notes/upload [post]
func (h *AttachmentHandler) Upload(c echo.Context) error {
	owner, err := userIDFrom(c)
	if err != nil {
		return err
	}
	if h.store == nil {
		return apperrors.ErrStorageUnavailable
	}

	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file", "A file is required")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	attachment, err := h.store.Put(c.Request().Context(), owner, header.Filename, file, header.Size, contentType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AttachmentResponse{Success: true, Attachment: attachment})
}
