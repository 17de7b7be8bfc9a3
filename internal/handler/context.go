package handler

import (
	"github.com/labstack/echo/v4"

	"diarydesk/internal/auth"
	apperrors "diarydesk/internal/errors"
)

// ClaimsContextKey is where the auth middleware stores *auth.Claims.
const ClaimsContextKey = "user"

func claimsFrom(c echo.Context) (*auth.Claims, error) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	if !ok || claims.UserID() == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

func userIDFrom(c echo.Context) (string, error) {
	claims, err := claimsFrom(c)
	if err != nil {
		return "", err
	}
	return claims.UserID(), nil
}
