package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ait-forum/forum-api/internal/api/metrics"
	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

// AccountHandler handles HTTP requests for account operations.
type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register creates a new account.
//
// @Summary      Register a new account
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  accountResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /account/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	account, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Login:     req.Login,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	metrics.AccountsRegisteredTotal.Inc()
	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// Login authenticates an account and returns a bearer token.
//
// @Summary      Login
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /account/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, account, err := h.accounts.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{
		Token:   token,
		Account: toAccountResponse(account),
	})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "locked"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "bad_credentials"
	}
	return "error"
}

// Get returns the account view for a login.
//
// @Summary      Get an account by login
// @Tags         account
// @Produce      json
// @Security     BasicAuth
// @Param        login  path      string  true  "Account login"
// @Success      200    {object}  accountResponse
// @Failure      404    {object}  errorResponse
// @Router       /account/user/{login} [get]
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.accounts.GetByLogin(c.Request().Context(), c.Param("login"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Update applies a partial profile update; only the fields present in the
// payload are changed.
//
// @Summary      Update profile fields
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BasicAuth
// @Param        login  path      string                true  "Account login"
// @Param        body   body      updateProfileRequest  true  "Fields to update"
// @Success      200    {object}  accountResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /account/user/{login} [patch]
func (h *AccountHandler) Update(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	account, err := h.accounts.UpdateProfile(c.Request().Context(), c.Param("login"), ports.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// Delete removes an account and returns its last-known state.
//
// @Summary      Delete an account
// @Tags         account
// @Produce      json
// @Security     BasicAuth
// @Param        login  path      string  true  "Account login"
// @Success      200    {object}  accountResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /account/user/{login} [delete]
func (h *AccountHandler) Delete(c echo.Context) error {
	account, err := h.accounts.Delete(c.Request().Context(), c.Param("login"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// ChangePassword is the verified variant: the old password must be proven
// before the new one is accepted.
//
// @Summary      Change password (verified)
// @Tags         account
// @Accept       json
// @Security     BasicAuth
// @Param        login  path  string                 true  "Account login"
// @Param        body   body  changePasswordRequest  true  "Old and new password"
// @Success      204
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /account/password/{login} [put]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), c.Param("login"), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPassword is the trusted variant: the authenticated principal replaces
// their own password, supplied via the X-Password header.
//
// @Summary      Change own password (trusted)
// @Tags         account
// @Security     BasicAuth
// @Param        X-Password  header  string  true  "New password"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /account/password [patch]
func (h *AccountHandler) SetPassword(c echo.Context) error {
	login, err := callerLogin(c)
	if err != nil {
		return err
	}

	newPassword := c.Request().Header.Get("X-Password")
	if newPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing X-Password header")
	}

	if err := h.accounts.SetPassword(c.Request().Context(), login, newPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddRole inserts a role into the account's role set. Adding an already-held
// role is a no-op that still succeeds.
//
// @Summary      Add a role to an account
// @Tags         account
// @Produce      json
// @Security     BasicAuth
// @Param        login  path      string  true  "Account login"
// @Param        role   path      string  true  "Role name"
// @Success      200    {object}  rolesResponse
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /account/role/{login}/{role} [put]
func (h *AccountHandler) AddRole(c echo.Context) error {
	account, err := h.accounts.AddRole(c.Request().Context(), c.Param("login"), c.Param("role"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rolesResponse{Login: account.Login, Roles: account.Roles.Names()})
}

// RemoveRole removes a role from the account's role set. Removing an absent
// role is a no-op that still succeeds.
//
// @Summary      Remove a role from an account
// @Tags         account
// @Produce      json
// @Security     BasicAuth
// @Param        login  path      string  true  "Account login"
// @Param        role   path      string  true  "Role name"
// @Success      200    {object}  rolesResponse
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /account/role/{login}/{role} [delete]
func (h *AccountHandler) RemoveRole(c echo.Context) error {
	account, err := h.accounts.RemoveRole(c.Request().Context(), c.Param("login"), c.Param("role"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rolesResponse{Login: account.Login, Roles: account.Roles.Names()})
}
