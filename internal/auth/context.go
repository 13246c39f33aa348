package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/spendsplit/internal/ledger"
	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
)

// ContextWithUser stores the authenticated session subject on ctx.
func ContextWithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, emailKey, email)
}

// UserIDFromContext extracts the user ID from the context.
// Returns empty string if not found.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// EmailFromContext extracts the user email from the context.
// Returns empty string if not found.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// UserGetter loads a user by ID.
type UserGetter interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// ContextIdentity resolves the current user from the session stored on the
// request context.
type ContextIdentity struct {
	users UserGetter
}

var _ ledger.Identity = (*ContextIdentity)(nil)

// NewContextIdentity creates an identity backed by users.
func NewContextIdentity(users UserGetter) *ContextIdentity {
	return &ContextIdentity{users: users}
}

// CurrentUser returns the session user. A missing session or a session for a
// user that no longer exists is ledger.ErrUnauthenticated.
func (i *ContextIdentity) CurrentUser(ctx context.Context) (*models.User, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return nil, ledger.ErrUnauthenticated
	}

	user, err := i.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s no longer exists", ledger.ErrUnauthenticated, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	return user, nil
}
