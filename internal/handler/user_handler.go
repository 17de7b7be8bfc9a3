package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"diarydesk/internal/model"
	"diarydesk/internal/service"
)

// UserHandler serves the authenticated user's account endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateProfileRequest carries optional profile fields.
type UpdateProfileRequest struct {
	Name         *string            `json:"name"`
	Bio          *string            `json:"bio"`
	ProfileImage *string            `json:"profileImage"`
	Preferences  *model.Preferences `json:"preferences"`
}

// ChangePasswordRequest carries the current and the new password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" message:"Both current and new passwords are required"`
	NewPassword     string `json:"newPassword" validate:"required" message:"Both current and new passwords are required"`
}

// GetUser godoc
// @Summary Get the logged in user
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/getuser [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := userIDFrom(c)
	if err != nil {
		return err
	}
	user, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserResponse{Success: true, User: user})
}

// UpdateProfile godoc
// @Summary Update profile fields
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/updateprofile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	user, err := h.svc.UpdateProfile(c.Request().Context(), id, service.ProfileUpdate{
		Name:         req.Name,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
		Preferences:  req.Preferences,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, UserResponse{Success: true, Message: "Profile updated successfully", User: user})
}

// ChangePassword godoc
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/changepassword [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, err := userIDFrom(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.svc.ChangePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Password changed successfully"})
}

// DeleteAccount godoc
// @Summary Delete the account and every note it owns
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/deleteaccount [delete]
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAccount(c.Request().Context(), claims.UserID(), claims); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Account deleted successfully"})
}
