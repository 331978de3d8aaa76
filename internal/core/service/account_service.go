package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ait-forum/forum-api/internal/core/authz"
	"github.com/ait-forum/forum-api/internal/core/domain"
	"github.com/ait-forum/forum-api/internal/core/password"
	"github.com/ait-forum/forum-api/internal/core/ports"
)

// LoginLimiter tracks failed login attempts per login (Redis-backed in
// production). A nil limiter disables throttling.
type LoginLimiter interface {
	// IsLocked reports whether the login has exceeded the attempt budget.
	IsLocked(ctx context.Context, login string) (bool, error)
	RecordFailure(ctx context.Context, login string) error
	Reset(ctx context.Context, login string) error
}

// AuditSink receives audit events for asynchronous persistence. A nil sink
// drops them.
type AuditSink interface {
	Enqueue(event domain.AuditEvent)
}

// AccountService implements the account lifecycle: registration, login,
// profile updates, password changes and role-set mutations.
type AccountService struct {
	repo        ports.AccountRepository
	hasher      *password.Hasher
	limiter     LoginLimiter
	audit       AuditSink
	jwtSecret   string
	tokenTTL    time.Duration
	defaultRole domain.Role // zero value = fresh accounts start with no roles
	log         zerolog.Logger
}

// AccountServiceConfig bundles the non-collaborator knobs of AccountService.
type AccountServiceConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// DefaultRole is assigned to freshly registered accounts. Empty means
	// fresh accounts start with an empty role set.
	DefaultRole domain.Role
}

func NewAccountService(
	repo ports.AccountRepository,
	hasher *password.Hasher,
	limiter LoginLimiter,
	audit AuditSink,
	cfg AccountServiceConfig,
	log zerolog.Logger,
) *AccountService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &AccountService{
		repo:        repo,
		hasher:      hasher,
		limiter:     limiter,
		audit:       audit,
		jwtSecret:   cfg.JWTSecret,
		tokenTTL:    cfg.TokenTTL,
		defaultRole: cfg.DefaultRole,
		log:         log,
	}
}

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	login := strings.TrimSpace(in.Login)
	if login == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	roles := domain.NewRoleSet()
	if s.defaultRole != "" {
		roles.Add(s.defaultRole)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Login:        login,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("login", login).Msg("account registered")
	s.record(ctx, "account.register", login, "")
	return created, nil
}

func (s *AccountService) Login(ctx context.Context, login, rawPassword string) (string, *domain.Account, error) {
	if login == "" || rawPassword == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		locked, err := s.limiter.IsLocked(ctx, login)
		if err != nil {
			s.log.Warn().Err(err).Str("login", login).Msg("login limiter check failed, proceeding")
		} else if locked {
			return "", nil, domain.ErrTooManyAttempts
		}
	}

	account, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		// Burn a comparison so unknown logins are not distinguishable by timing.
		s.hasher.DummyVerify(rawPassword)
		return "", nil, err
	}

	if !s.hasher.Verify(rawPassword, account.PasswordHash) {
		if s.limiter != nil {
			if lerr := s.limiter.RecordFailure(ctx, login); lerr != nil {
				s.log.Warn().Err(lerr).Str("login", login).Msg("failed to record login failure")
			}
		}
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.limiter != nil {
		if lerr := s.limiter.Reset(ctx, login); lerr != nil {
			s.log.Warn().Err(lerr).Str("login", login).Msg("failed to reset login limiter")
		}
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, fmt.Errorf("login: sign token: %w", err)
	}

	s.log.Info().Str("login", login).Msg("login succeeded")
	return token, account, nil
}

func (s *AccountService) GetByLogin(ctx context.Context, login string) (*domain.Account, error) {
	return s.repo.FindByLogin(ctx, login)
}

func (s *AccountService) UpdateProfile(ctx context.Context, login string, in ports.UpdateProfileInput) (*domain.Account, error) {
	updated, err := s.repo.UpdateProfile(ctx, login, in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "account.update", login, "")
	return updated, nil
}

func (s *AccountService) Delete(ctx context.Context, login string) (*domain.Account, error) {
	deleted, err := s.repo.Delete(ctx, login)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("login", login).Msg("account deleted")
	s.record(ctx, "account.delete", login, "")
	return deleted, nil
}

// ChangePassword is the verified variant: the stored hash is kept unchanged
// unless the old password matches it.
func (s *AccountService) ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	account, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(oldPassword, account.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	return s.setPassword(ctx, login, newPassword)
}

// SetPassword is the trusted variant: the authorization layer has already
// proven the caller is the account owner.
func (s *AccountService) SetPassword(ctx context.Context, login, newPassword string) error {
	return s.setPassword(ctx, login, newPassword)
}

func (s *AccountService) setPassword(ctx context.Context, login, newPassword string) error {
	if newPassword == "" {
		return domain.ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, login, hash); err != nil {
		return err
	}
	s.log.Info().Str("login", login).Msg("password changed")
	s.record(ctx, "account.password", login, "")
	return nil
}

func (s *AccountService) AddRole(ctx context.Context, login, roleName string) (*domain.Account, error) {
	role, ok := domain.ParseRole(roleName)
	if !ok {
		return nil, domain.ErrUnknownRole
	}
	updated, err := s.repo.AddRole(ctx, login, role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("login", login).Str("role", string(role)).Msg("role added")
	s.record(ctx, "role.add", login, string(role))
	return updated, nil
}

func (s *AccountService) RemoveRole(ctx context.Context, login, roleName string) (*domain.Account, error) {
	role, ok := domain.ParseRole(roleName)
	if !ok {
		return nil, domain.ErrUnknownRole
	}
	updated, err := s.repo.RemoveRole(ctx, login, role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("login", login).Str("role", string(role)).Msg("role removed")
	s.record(ctx, "role.remove", login, string(role))
	return updated, nil
}

// record enqueues an audit event attributed to the authenticated caller,
// falling back to the target login for unauthenticated flows (registration).
func (s *AccountService) record(ctx context.Context, action, target, detail string) {
	if s.audit == nil {
		return
	}
	actor := authz.CallerFromContext(ctx).Login
	if actor == "" {
		actor = target
	}
	s.audit.Enqueue(domain.AuditEvent{
		Actor:     actor,
		Action:    action,
		Target:    target,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}

func (s *AccountService) generateToken(account *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"login": account.Login,
		"roles": account.Roles.Names(),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
