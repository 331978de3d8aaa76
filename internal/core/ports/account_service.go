package ports

import (
	"context"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

// RegisterInput carries the data needed to create a new account.
type RegisterInput struct {
	Login     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileInput is a partial profile update; nil fields are not touched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
}

// AccountService defines the account lifecycle use cases.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)

	// Login verifies credentials and returns a signed token plus the account.
	Login(ctx context.Context, login, password string) (string, *domain.Account, error)

	GetByLogin(ctx context.Context, login string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, login string, in UpdateProfileInput) (*domain.Account, error)
	Delete(ctx context.Context, login string) (*domain.Account, error)

	// ChangePassword is the verified variant: the old password must match the
	// stored hash before the new one is accepted.
	ChangePassword(ctx context.Context, login, oldPassword, newPassword string) error

	// SetPassword is the trusted variant: the caller's identity has already
	// been established by the authorization layer, no old-password proof.
	SetPassword(ctx context.Context, login, newPassword string) error

	AddRole(ctx context.Context, login, role string) (*domain.Account, error)
	RemoveRole(ctx context.Context, login, role string) (*domain.Account, error)
}
