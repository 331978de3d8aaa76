package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/password"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	accounts map[string]*domain.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Roles = domain.NewRoleSet()
	for r := range a.Roles {
		clone.Roles.Add(r)
	}
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if _, exists := r.accounts[account.Login]; exists {
		return nil, domain.ErrAccountExists
	}
	r.accounts[account.Login] = cloneAccount(account)
	return cloneAccount(account), nil
}

func (r *stubAccountRepo) FindByLogin(_ context.Context, login string) (*domain.Account, error) {
	a, ok := r.accounts[login]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) UpdateProfile(_ context.Context, login string, firstName, lastName *string) (*domain.Account, error) {
	a, ok := r.accounts[login]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if firstName != nil {
		a.FirstName = *firstName
	}
	if lastName != nil {
		a.LastName = *lastName
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, login, hash string) error {
	a, ok := r.accounts[login]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r *stubAccountRepo) AddRole(_ context.Context, login string, role domain.Role) (*domain.Account, error) {
	a, ok := r.accounts[login]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a.Roles.Add(role)
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) RemoveRole(_ context.Context, login string, role domain.Role) (*domain.Account, error) {
	a, ok := r.accounts[login]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a.Roles.Remove(role)
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Delete(_ context.Context, login string) (*domain.Account, error) {
	a, ok := r.accounts[login]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	delete(r.accounts, login)
	return a, nil
}

// ---------------------------------------------------------------------------
// Stub limiter and audit sink
// ---------------------------------------------------------------------------

type stubLimiter struct {
	failures  map[string]int
	threshold int
}

func newStubLimiter(threshold int) *stubLimiter {
	return &stubLimiter{failures: make(map[string]int), threshold: threshold}
}

func (l *stubLimiter) IsLocked(_ context.Context, login string) (bool, error) {
	return l.failures[login] >= l.threshold, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, login string) error {
	l.failures[login]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, login string) error {
	delete(l.failures, login)
	return nil
}

type stubAuditSink struct {
	events []domain.AuditEvent
}

func (s *stubAuditSink) Enqueue(e domain.AuditEvent) {
	s.events = append(s.events, e)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var testLogger = zerolog.Nop()

func newTestService(repo ports.AccountRepository, limiter LoginLimiter, audit AuditSink, defaultRole domain.Role) *AccountService {
	return NewAccountService(repo, password.NewHasher(4), limiter, audit, AccountServiceConfig{
		JWTSecret:   "secret",
		TokenTTL:    time.Hour,
		DefaultRole: defaultRole,
	}, testLogger)
}

func mustRegister(t *testing.T, svc *AccountService, login, pass string) *domain.Account {
	t.Helper()
	account, err := svc.Register(context.Background(), ports.RegisterInput{
		Login: login, Password: pass, FirstName: "First", LastName: "Last",
	})
	if err != nil {
		t.Fatalf("register %s: %v", login, err)
	}
	return account
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAccountService_Register_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")

	account := mustRegister(t, svc, "alice", "pass123")
	if account.PasswordHash == "pass123" {
		t.Fatalf("password stored in plain text")
	}
	if len(account.Roles) != 0 {
		t.Fatalf("expected empty role set, got %v", account.Roles.Names())
	}
}

func TestAccountService_Register_DefaultRolePolicy(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, domain.RoleUser)

	account := mustRegister(t, svc, "alice", "pass123")
	if !account.Roles.Has(domain.RoleUser) {
		t.Fatalf("expected default USER role, got %v", account.Roles.Names())
	}
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")

	mustRegister(t, svc, "bob", "pass")
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Login: "bob", Password: "other"}); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountService_Register_EmptyCredentials(t *testing.T) {
	svc := newTestService(newStubAccountRepo(), nil, nil, "")

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Login: "", Password: "x"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty login, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Login: "x", Password: ""}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAccountService_Login_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, domain.RoleUser)
	mustRegister(t, svc, "carol", "s3cret")

	token, account, err := svc.Login(context.Background(), "carol", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if account == nil || account.Login != "carol" {
		t.Fatalf("unexpected account: %+v", account)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["login"] != "carol" {
		t.Fatalf("expected login claim carol, got %v", claims["login"])
	}
}

func TestAccountService_Login_WrongPassword(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "dave", "goodpass")

	if _, _, err := svc.Login(context.Background(), "dave", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountService_Login_UnknownLogin(t *testing.T) {
	svc := newTestService(newStubAccountRepo(), nil, nil, "")

	if _, _, err := svc.Login(context.Background(), "ghost", "pass"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_Login_Lockout(t *testing.T) {
	repo := newStubAccountRepo()
	limiter := newStubLimiter(3)
	svc := newTestService(repo, limiter, nil, "")
	mustRegister(t, svc, "eve", "rightpass")

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Login(context.Background(), "eve", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	// Attempt budget exhausted: even the correct password is rejected.
	if _, _, err := svc.Login(context.Background(), "eve", "rightpass"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAccountService_Login_ResetsLimiterOnSuccess(t *testing.T) {
	repo := newStubAccountRepo()
	limiter := newStubLimiter(3)
	svc := newTestService(repo, limiter, nil, "")
	mustRegister(t, svc, "frank", "pw")

	_, _, _ = svc.Login(context.Background(), "frank", "nope")
	if _, _, err := svc.Login(context.Background(), "frank", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if limiter.failures["frank"] != 0 {
		t.Fatalf("limiter not reset after successful login")
	}
}

// ---------------------------------------------------------------------------
// Delete / profile
// ---------------------------------------------------------------------------

func TestAccountService_Delete_ThenGetNotFound(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "gone", "pw")

	deleted, err := svc.Delete(context.Background(), "gone")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.Login != "gone" {
		t.Fatalf("delete did not return the last-known state")
	}
	if _, err := svc.GetByLogin(context.Background(), "gone"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound after delete, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), "gone"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound on second delete, got %v", err)
	}
}

func TestAccountService_UpdateProfile_Partial(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "helen", "pw")

	first := "Helene"
	updated, err := svc.UpdateProfile(context.Background(), "helen", ports.UpdateProfileInput{FirstName: &first})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.FirstName != "Helene" {
		t.Fatalf("first name not updated: %s", updated.FirstName)
	}
	if updated.LastName != "Last" {
		t.Fatalf("omitted field was changed: %s", updated.LastName)
	}

	if _, err := svc.UpdateProfile(context.Background(), "nobody", ports.UpdateProfileInput{}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Password changes
// ---------------------------------------------------------------------------

func TestAccountService_ChangePassword_Verified(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "ivan", "oldpw")

	if err := svc.ChangePassword(context.Background(), "ivan", "oldpw", "newpw"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ivan", "newpw"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ivan", "oldpw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password still accepted")
	}
}

func TestAccountService_ChangePassword_WrongOldKeepsHash(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "judy", "original")
	before := repo.accounts["judy"].PasswordHash

	if err := svc.ChangePassword(context.Background(), "judy", "wrong", "newpw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if repo.accounts["judy"].PasswordHash != before {
		t.Fatalf("stored hash changed despite failed verification")
	}
}

func TestAccountService_SetPassword_Trusted(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "kate", "anything")

	// Trusted variant: no old-password proof required.
	if err := svc.SetPassword(context.Background(), "kate", "replacement"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "kate", "replacement"); err != nil {
		t.Fatalf("login with replacement failed: %v", err)
	}
	if err := svc.SetPassword(context.Background(), "nobody", "x"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Role mutations
// ---------------------------------------------------------------------------

func TestAccountService_AddRole_Idempotent(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "lena", "pw")

	first, err := svc.AddRole(context.Background(), "lena", "moderator")
	if err != nil {
		t.Fatalf("add role failed: %v", err)
	}
	second, err := svc.AddRole(context.Background(), "lena", "MODERATOR")
	if err != nil {
		t.Fatalf("second add role failed: %v", err)
	}
	if len(first.Roles) != 1 || len(second.Roles) != 1 {
		t.Fatalf("role set not idempotent: %v then %v", first.Roles.Names(), second.Roles.Names())
	}
	if !second.Roles.Has(domain.RoleModerator) {
		t.Fatalf("MODERATOR missing from role set")
	}
}

func TestAccountService_RemoveRole_AbsentIsNoError(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, domain.RoleUser)
	mustRegister(t, svc, "mike", "pw")

	updated, err := svc.RemoveRole(context.Background(), "mike", "ADMINISTRATOR")
	if err != nil {
		t.Fatalf("removing absent role must not error: %v", err)
	}
	if !updated.Roles.Has(domain.RoleUser) || len(updated.Roles) != 1 {
		t.Fatalf("role set changed by no-op removal: %v", updated.Roles.Names())
	}
}

func TestAccountService_RoleMutation_Errors(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil, "")
	mustRegister(t, svc, "nina", "pw")

	if _, err := svc.AddRole(context.Background(), "nina", "SUPERUSER"); !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := svc.AddRole(context.Background(), "nobody", "USER"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.RemoveRole(context.Background(), "nobody", "USER"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Audit trail
// ---------------------------------------------------------------------------

func TestAccountService_MutationsEmitAuditEvents(t *testing.T) {
	repo := newStubAccountRepo()
	sink := &stubAuditSink{}
	svc := newTestService(repo, nil, sink, "")

	mustRegister(t, svc, "olga", "pw")
	if _, err := svc.AddRole(context.Background(), "olga", "USER"); err != nil {
		t.Fatalf("add role failed: %v", err)
	}

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(sink.events))
	}
	if sink.events[0].Action != "account.register" || sink.events[1].Action != "role.add" {
		t.Fatalf("unexpected audit actions: %+v", sink.events)
	}
	if sink.events[1].Detail != "USER" {
		t.Fatalf("role audit event missing role detail: %+v", sink.events[1])
	}
}
