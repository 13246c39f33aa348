package ledger

import (
	"context"

	"github.com/mmynk/spendsplit/internal/models"
)

// Identity resolves the user making the current request.
// Implementations return ErrUnauthenticated when no user can be resolved.
type Identity interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// IdentityFunc adapts a function to Identity.
type IdentityFunc func(ctx context.Context) (*models.User, error)

func (f IdentityFunc) CurrentUser(ctx context.Context) (*models.User, error) {
	return f(ctx)
}
