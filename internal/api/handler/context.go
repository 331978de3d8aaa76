package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// callerLogin extracts the authenticated caller's login injected by the Auth
// middleware. Its presence proves the middleware ran; handlers behind an
// authenticated route group fail fast with 401 when it is missing.
func callerLogin(c echo.Context) (string, error) {
	login, _ := c.Get("login").(string)
	if login == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return login, nil
}
