package ports

import (
	"context"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts. All mutation
// methods are single-record atomic updates: the store serializes concurrent
// read-modify-write cycles on the same login, so callers never observe a lost
// update between concurrent role toggles or password changes.
type AccountRepository interface {
	// Create inserts a new account. Returns domain.ErrAccountExists when the
	// login is already taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	FindByLogin(ctx context.Context, login string) (*domain.Account, error)

	// UpdateProfile applies a partial update; nil fields are left unchanged.
	// Returns the updated record or domain.ErrAccountNotFound.
	UpdateProfile(ctx context.Context, login string, firstName, lastName *string) (*domain.Account, error)

	// UpdatePassword replaces the stored hash in place, leaving roles untouched.
	UpdatePassword(ctx context.Context, login, passwordHash string) error

	// AddRole and RemoveRole are idempotent set operations on the role set.
	AddRole(ctx context.Context, login string, role domain.Role) (*domain.Account, error)
	RemoveRole(ctx context.Context, login string, role domain.Role) (*domain.Account, error)

	// Delete removes the account and returns its last-known state.
	Delete(ctx context.Context, login string) (*domain.Account, error)
}
