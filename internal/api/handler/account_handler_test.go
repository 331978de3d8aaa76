package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

type stubAccountService struct {
	registerFn       func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error)
	loginFn          func(ctx context.Context, login, password string) (string, *domain.Account, error)
	getFn            func(ctx context.Context, login string) (*domain.Account, error)
	updateFn         func(ctx context.Context, login string, in ports.UpdateProfileInput) (*domain.Account, error)
	deleteFn         func(ctx context.Context, login string) (*domain.Account, error)
	changePasswordFn func(ctx context.Context, login, oldPassword, newPassword string) error
	setPasswordFn    func(ctx context.Context, login, newPassword string) error
	addRoleFn        func(ctx context.Context, login, role string) (*domain.Account, error)
	removeRoleFn     func(ctx context.Context, login, role string) (*domain.Account, error)
}

func (s *stubAccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAccountService) Login(ctx context.Context, login, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, login, password)
}

func (s *stubAccountService) GetByLogin(ctx context.Context, login string) (*domain.Account, error) {
	return s.getFn(ctx, login)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, login string, in ports.UpdateProfileInput) (*domain.Account, error) {
	return s.updateFn(ctx, login, in)
}

func (s *stubAccountService) Delete(ctx context.Context, login string) (*domain.Account, error) {
	return s.deleteFn(ctx, login)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, login, oldPassword, newPassword)
}

func (s *stubAccountService) SetPassword(ctx context.Context, login, newPassword string) error {
	return s.setPasswordFn(ctx, login, newPassword)
}

func (s *stubAccountService) AddRole(ctx context.Context, login, role string) (*domain.Account, error) {
	return s.addRoleFn(ctx, login, role)
}

func (s *stubAccountService) RemoveRole(ctx context.Context, login, role string) (*domain.Account, error) {
	return s.removeRoleFn(ctx, login, role)
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAccountHandler_Register_Success(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
			if in.Login != "alice" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Account{
				Login:     in.Login,
				FirstName: in.FirstName,
				Roles:     domain.NewRoleSet(domain.RoleUser),
				CreatedAt: time.Now().UTC(),
			}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/account/register",
		`{"login":"alice","password":"secret1","first_name":"Alice"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["login"] != "alice" || resp["first_name"] != "Alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if _, ok := resp["password"]; ok {
		t.Fatalf("password leaked into response")
	}
}

func TestAccountHandler_Register_Duplicate(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
			return nil, domain.ErrAccountExists
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodPost, "/account/register",
		`{"login":"alice","password":"secret1"}`)
	err := h.Register(c)
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountHandler_Register_ShortPassword(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodPost, "/account/register",
		`{"login":"alice","password":"x"}`)
	err := h.Register(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestAccountHandler_Register_InvalidPayload(t *testing.T) {
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodPost, "/account/register", "not-json")
	err := h.Register(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAccountHandler_Login_Success(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, login, password string) (string, *domain.Account, error) {
			if login != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", login, password)
			}
			return "token123", &domain.Account{Login: "alice"}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newJSONContext(t, http.MethodPost, "/account/login",
		`{"login":"alice","password":"secret1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	account, ok := resp["account"].(map[string]any)
	if !ok || account["login"] != "alice" {
		t.Fatalf("unexpected account payload: %+v", account)
	}
}

func TestAccountHandler_Login_BadCredentials(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, login, password string) (string, *domain.Account, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodPost, "/account/login",
		`{"login":"alice","password":"wrong"}`)
	err := h.Login(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountHandler_Login_Locked(t *testing.T) {
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, login, password string) (string, *domain.Account, error) {
			return "", nil, domain.ErrTooManyAttempts
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodPost, "/account/login",
		`{"login":"alice","password":"secret1"}`)
	err := h.Login(c)
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	stub := &stubAccountService{
		getFn: func(ctx context.Context, login string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodGet, "/account/user/ghost", "")
	c.SetParamNames("login")
	c.SetParamValues("ghost")
	err := h.Get(c)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountHandler_Update_PartialFields(t *testing.T) {
	stub := &stubAccountService{
		updateFn: func(ctx context.Context, login string, in ports.UpdateProfileInput) (*domain.Account, error) {
			if login != "alice" {
				t.Fatalf("unexpected login %q", login)
			}
			if in.FirstName == nil || *in.FirstName != "Alicia" {
				t.Fatalf("expected first name present, got %+v", in)
			}
			if in.LastName != nil {
				t.Fatalf("expected last name absent, got %q", *in.LastName)
			}
			return &domain.Account{Login: login, FirstName: *in.FirstName}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newJSONContext(t, http.MethodPatch, "/account/user/alice",
		`{"first_name":"Alicia"}`)
	c.SetParamNames("login")
	c.SetParamValues("alice")
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_ChangePassword_NoContent(t *testing.T) {
	called := false
	stub := &stubAccountService{
		changePasswordFn: func(ctx context.Context, login, oldPassword, newPassword string) error {
			called = true
			if login != "alice" || oldPassword != "old-secret" || newPassword != "new-secret" {
				t.Fatalf("unexpected args: %s %s %s", login, oldPassword, newPassword)
			}
			return nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newJSONContext(t, http.MethodPut, "/account/password/alice",
		`{"old_password":"old-secret","new_password":"new-secret"}`)
	c.SetParamNames("login")
	c.SetParamValues("alice")
	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("service not called")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAccountHandler_SetPassword_UsesCallerIdentity(t *testing.T) {
	stub := &stubAccountService{
		setPasswordFn: func(ctx context.Context, login, newPassword string) error {
			if login != "alice" || newPassword != "fresh-secret" {
				t.Fatalf("unexpected args: %s %s", login, newPassword)
			}
			return nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newJSONContext(t, http.MethodPatch, "/account/password", "")
	c.Request().Header.Set("X-Password", "fresh-secret")
	c.Set("login", "alice")
	if err := h.SetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAccountHandler_SetPassword_MissingHeader(t *testing.T) {
	stub := &stubAccountService{
		setPasswordFn: func(ctx context.Context, login, newPassword string) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodPatch, "/account/password", "")
	c.Set("login", "alice")
	err := h.SetPassword(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAccountHandler_SetPassword_Unauthenticated(t *testing.T) {
	h := NewAccountHandler(&stubAccountService{})

	c, _ := newJSONContext(t, http.MethodPatch, "/account/password", "")
	c.Request().Header.Set("X-Password", "fresh-secret")
	err := h.SetPassword(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAccountHandler_AddRole_ReturnsRoleSet(t *testing.T) {
	stub := &stubAccountService{
		addRoleFn: func(ctx context.Context, login, role string) (*domain.Account, error) {
			return &domain.Account{Login: login, Roles: domain.NewRoleSet(domain.RoleUser, domain.RoleModerator)}, nil
		},
	}
	h := NewAccountHandler(stub)

	c, rec := newJSONContext(t, http.MethodPut, "/account/role/alice/moderator", "")
	c.SetParamNames("login", "role")
	c.SetParamValues("alice", "moderator")
	if err := h.AddRole(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp rolesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Login != "alice" || len(resp.Roles) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAccountHandler_RemoveRole_UnknownRole(t *testing.T) {
	stub := &stubAccountService{
		removeRoleFn: func(ctx context.Context, login, role string) (*domain.Account, error) {
			return nil, domain.ErrUnknownRole
		},
	}
	h := NewAccountHandler(stub)

	c, _ := newJSONContext(t, http.MethodDelete, "/account/role/alice/owner", "")
	c.SetParamNames("login", "role")
	c.SetParamValues("alice", "owner")
	err := h.RemoveRole(c)
	if !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}
